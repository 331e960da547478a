// Package handlers holds reusable pieces of the HTTP layer: health checks,
// instructor authentication and middleware.
//
// # Health Checks
//
// Checks are registered by name and run in parallel on every /healthz call:
//
//	checker := handlers.NewCompositeHealthChecker(version)
//	checker.AddCheck("postgres", handlers.NewPingCheck(conn))
//	checker.AddCheck("redis", handlers.NewPingCheck(cache))
//	checker.AddCheck("data_dir", handlers.NewDirCheck(dir))
//
// # Instructor Authentication
//
// The grouping pages use HTTP basic auth against a bcrypt hash taken from
// the configuration:
//
//	auth, err := handlers.NewAdminAuth(user, hash, logger)
//	mux.Handle("GET /admin/groups", auth.Middleware(groupsHandler))
//
// A hash for the configuration is produced with `grouper hash-password`.
package handlers
