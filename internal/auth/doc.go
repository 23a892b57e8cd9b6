// Package auth provides authentication and authorization for the configurator API.
//
// # Authentication
//
// LocalProvider authenticates users by email against the local database with
// Argon2id password hashes. A successful login yields an HS256 signed bearer
// token whose subject is the user ID. Logging out revokes the token by storing
// its ID in a fiber.Storage until the token would have expired anyway.
//
// # Authorization
//
// Every request re-reads the user so that role and permission edits take
// effect on the next call. Effective permissions come from
// permission.Resolve, and route guards check them with Set.Has so that the
// aggregate keys canEdit and canTexture work as route requirements too.
//
// Example usage:
//
//	authService := auth.NewService(db, auth.Options{Secret: secret, TTL: 24 * time.Hour})
//
//	app.Get("/api/admin/models",
//	    auth.RequireAuthenticated(authService),
//	    auth.RequirePermission(permission.ModelUpload),
//	    handler,
//	)
package auth
