package errorz

import "errors"

var (
	MissingCredentials = errors.New("credentials are not set")
	MissingTemplate    = errors.New("whatsapp template is not set")
	MissingAPIKey      = errors.New("api key is not set")
)
