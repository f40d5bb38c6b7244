package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/grupo95/mecanica-backend/api/controllers"
	ordercontrollers "github.com/grupo95/mecanica-backend/api/controllers/orders"
	"github.com/grupo95/mecanica-backend/api/middleware"
	"github.com/grupo95/mecanica-backend/internal/catalog"
	"github.com/grupo95/mecanica-backend/internal/customers"
	"github.com/grupo95/mecanica-backend/internal/stock"
	"github.com/grupo95/mecanica-backend/internal/users"
	"github.com/grupo95/mecanica-backend/internal/workflow"
	"github.com/grupo95/mecanica-backend/pkg/config"
	"github.com/grupo95/mecanica-backend/pkg/logger"
)

// Services groups everything the router exposes.
type Services struct {
	Workflow  *workflow.Service
	Stock     *stock.Service
	Customers *customers.Service
	Catalog   *catalog.Service
	Users     *users.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	deps map[string]controllers.Pinger,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(svcs.Workflow, logg))
			r.Get("/", ordercontrollers.List(svcs.Workflow, logg))
			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", ordercontrollers.Detail(svcs.Workflow, logg))
				r.Patch("/", ordercontrollers.Update(svcs.Workflow, logg))
				r.Post("/materials", ordercontrollers.AttachMaterials(svcs.Workflow, logg))
				r.Post("/budget", ordercontrollers.SendBudget(svcs.Workflow, logg))
				r.Post("/budget/accept", ordercontrollers.AcceptBudget(svcs.Workflow, logg))
				r.Post("/budget/reject", ordercontrollers.RejectBudget(svcs.Workflow, logg))
				r.Post("/materials/return", ordercontrollers.ReturnMaterials(svcs.Workflow, logg))
			})
		})

		r.Route("/stock", func(r chi.Router) {
			r.Post("/", controllers.CreateStockItem(svcs.Stock, logg))
			r.Get("/", controllers.ListStockItems(svcs.Stock, logg))
			r.Get("/critical", controllers.ListCriticalStock(svcs.Stock, logg))
			r.Route("/{itemID}", func(r chi.Router) {
				r.Get("/", controllers.GetStockItem(svcs.Stock, logg))
				r.Patch("/", controllers.UpdateStockItem(svcs.Stock, logg))
			})
		})

		r.Route("/customers", func(r chi.Router) {
			r.Post("/", controllers.CreateCustomer(svcs.Customers, logg))
			r.Get("/", controllers.ListCustomers(svcs.Customers, logg))
			r.Route("/{customerID}", func(r chi.Router) {
				r.Get("/", controllers.GetCustomer(svcs.Customers, logg))
				r.Patch("/", controllers.UpdateCustomer(svcs.Customers, logg))
				r.Post("/vehicles", controllers.AddVehicle(svcs.Customers, logg))
				r.Get("/vehicles", controllers.ListVehicles(svcs.Customers, logg))
			})
		})

		r.Route("/services", func(r chi.Router) {
			r.Post("/", controllers.CreateCatalogService(svcs.Catalog, logg))
			r.Get("/", controllers.ListCatalogServices(svcs.Catalog, logg))
			r.Route("/{serviceID}", func(r chi.Router) {
				r.Get("/", controllers.GetCatalogService(svcs.Catalog, logg))
				r.Patch("/", controllers.UpdateCatalogService(svcs.Catalog, logg))
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", controllers.CreateUser(svcs.Users, logg))
			r.Get("/", controllers.ListUsers(svcs.Users, logg))
			r.Post("/verify", controllers.VerifyCredentials(svcs.Users, logg))
			r.Route("/{userID}", func(r chi.Router) {
				r.Get("/", controllers.GetUser(svcs.Users, logg))
				r.Patch("/", controllers.UpdateUser(svcs.Users, logg))
			})
		})
	})

	return r
}
