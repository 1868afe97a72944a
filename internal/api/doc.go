// Package api provides the workshop portal REST API.
//
//	@title						Workshop Portal API
//	@version					1.0
//	@description				Admin API for provisioning per-participant Azure workshop environments
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						X-API-Key
package api
