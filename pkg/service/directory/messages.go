package directory

// User-facing messages. The remote message takes precedence when it provides one.
const (
	msgMissingCredentials = "Por favor, introduce usuario y contraseña"
	msgInvalidCredentials = "Credenciales inválidas"
	msgVerifyFailed       = "Error al verificar credenciales"

	msgListFailed   = "Error al obtener usuarios"
	msgAddFailed    = "Error al añadir usuario"
	msgUpdateFailed = "Error al actualizar usuario"
	msgDeleteFailed = "Error al eliminar usuario"

	msgListRejected   = "No se pudieron cargar los usuarios"
	msgAddRejected    = "No se pudo añadir el usuario"
	msgUpdateRejected = "No se pudo actualizar el usuario"
	msgDeleteRejected = "No se pudo eliminar el usuario"

	msgAdded   = "El usuario se ha añadido correctamente"
	msgUpdated = "El usuario se ha actualizado correctamente"
	msgDeleted = "El usuario se ha eliminado correctamente"
)
