package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nxp-qmc/qmc2g-core/internal/logger"
	"github.com/nxp-qmc/qmc2g-core/internal/restapi/middleware"
)

// NewRouter builds the chi router serving the REST surface the control
// panel and commissioning tools consume, wiring handlers against deps'
// collaborators.
//
// Routes:
//   - POST        /session              create a session (anonymous)
//   - GET/DELETE  /session[/{sid}]       own session, or any (Maintenance)
//   - GET         /sessions              list live sessions (Maintenance)
//   - GET         /users[/{name}]        list users (Maintenance), fetch a user
//   - POST        /users                 create a user (Maintenance)
//   - PUT/DELETE  /users/{name}          update/remove a user (Maintenance)
//   - POST        /users/{name}/lock     lock an account (Maintenance)
//   - POST        /users/{name}/unlock   unlock an account (Maintenance)
//   - GET         /motors[/{id}]         motor status
//   - POST/PUT    /motors/{id}           issue a motor command (Maintenance)
//   - GET         /log                   paged log entries (Maintenance)
//   - GET/POST    /system                lifecycle state (POST: Maintenance)
//   - GET/POST    /time                  wall-clock time (POST: Maintenance)
//   - GET         /motd                  message of the day (anonymous)
//   - POST        /reset                 schedule a reset (Maintenance)
//   - GET/PUT     /settings[/{key}]      configuration cells (Maintenance)
//   - POST        /fwupload              firmware chunk upload (Maintenance)
func NewRouter(deps *Handlers, sessions middleware.SessionValidator, counter *errorCounter) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(withErrorCounter(counter))

	r.Get("/motd", deps.GetMOTD)
	r.Post("/session", deps.CreateSession)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(sessions))

		r.Get("/session", deps.GetSession)
		r.Delete("/session", deps.EndSession)
		r.Get("/session/{sid}", deps.GetSession)
		r.Delete("/session/{sid}", deps.EndSession)

		r.Get("/motors", deps.GetMotors)
		r.Get("/motors/{id}", deps.GetMotor)

		r.Get("/system", deps.GetSystem)
		r.Get("/time", deps.GetTime)

		r.Get("/users/{name}", deps.GetUser)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMaintenance())

			r.Get("/sessions", deps.ListSessions)

			r.Get("/users", deps.ListUsers)
			r.Post("/users", deps.CreateUser)
			r.Put("/users/{name}", deps.UpdateUser)
			r.Delete("/users/{name}", deps.RemoveUser)
			r.Post("/users/{name}/lock", deps.LockUser)
			r.Post("/users/{name}/unlock", deps.UnlockUser)

			r.Post("/motors/{id}", deps.IssueMotorCommand)
			r.Put("/motors/{id}", deps.IssueMotorCommand)

			r.Get("/log", deps.GetLog)

			r.Post("/system", deps.SetSystem)
			r.Post("/time", deps.SetTime)
			r.Post("/reset", deps.Reset)

			r.Get("/settings", deps.ListSettings)
			r.Get("/settings/{key}", deps.GetSetting)
			r.Put("/settings/{key}", deps.SetSetting)

			r.Post("/fwupload", deps.FirmwareUpload)
		})
	})

	return r
}

// requestLogger logs every request's method, path and outcome through the
// shared structured logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := chimiddleware.GetReqID(r.Context())

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Debug("rest request completed",
			logger.Component("restapi"),
			logger.RequestID(requestID),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			logger.DurationMs(logger.Duration(start)))
	})
}
