package dynamo

// DynamoDB attribute names used in keys and update expressions across all repos.
const (
	fieldEmail        = "email"
	fieldUserID       = "user_id"
	fieldEnable       = "enable"
	fieldUpdatedAt    = "updated_at"
	fieldTokenHash    = "token_hash"
	fieldPurgeAt      = "purge_at"
	fieldBaseID       = "base_id"
	fieldAircraftID   = "aircraft_id"
	fieldImageKey     = "image_key"
	indexUserID       = "user_id-index"
	indexAircraftBase = "base_id-index"
)
