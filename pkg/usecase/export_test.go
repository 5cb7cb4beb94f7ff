package usecase

// UserListCacheTTL is exported for testing
const UserListCacheTTL = userListCacheTTL

// DropAuthCache forgets every cached session so the next validation reads the repository
func (uc *AuthUseCase) DropAuthCache() {
	uc.cache = newAuthCache()
}

// ViewerCount is exported for testing
func (uc *ViewUseCase) ViewerCount() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return len(uc.viewers)
}
