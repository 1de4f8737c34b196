package routes

import (
	"github.com/gofiber/fiber/v2"

	"jofotara-backend/controllers"
	"jofotara-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", controllers.Register)
	api.Post("/login", controllers.Login)
	api.Post("/logout", controllers.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency())

	// Then per-request tenant transaction (pins search_path and commits/rolls back)
	protected.Use(middlewares.TenantTx())

	// Customers
	protected.Post("/customer", controllers.CreateCustomer)
	protected.Get("/customers", controllers.GetCustomers)
	protected.Get("/customer/:id", controllers.GetCustomer)
	protected.Put("/customer/:id", controllers.UpdateCustomer)

	// Articles
	protected.Post("/article", controllers.CreateArticles) // batch create
	protected.Get("/articles", controllers.GetArticles)
	protected.Put("/articles/:id", controllers.UpdateArticle)

	// Invoices
	protected.Post("/invoice", controllers.CreateInvoice)
	protected.Get("/invoices", controllers.GetInvoices)
	protected.Get("/invoice/:id", controllers.GetInvoice)
	protected.Post("/invoice/:id/duplicate", controllers.DuplicateInvoice)
	protected.Post("/invoice/:id/write-off", controllers.WriteOffInvoice)
	protected.Post("/invoice/:id/cancel", controllers.CancelInvoice)
	protected.Patch("/invoice/:id/number", controllers.ChangeInvoiceNumber)

	// Submissions
	submissions := controllers.NewSubmissionHandler()
	protected.Post("/invoice/:id/submit", submissions.Submit)
	protected.Post("/invoice/:id/credit-note", submissions.SubmitCreditNote)
	protected.Get("/invoice/:id/submissions", submissions.ListSubmissions)

	// Sequence integrity reports
	protected.Get("/reports/sequence/:kind", controllers.SequenceReport)
	protected.Post("/reports/sequence/:kind/resequence", controllers.ResequenceSeries)
}
