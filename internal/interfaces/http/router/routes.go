package router

import (
	"github.com/agency/backend/internal/domain/identity"
	"github.com/agency/backend/internal/interfaces/http/handler"
	"github.com/agency/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers bundles every HTTP handler the agency API serves
type Handlers struct {
	B2CClients   *handler.B2CClientHandler
	B2BClients   *handler.B2BClientHandler
	Transactions *handler.TransactionHandler
	Companies    *handler.CompanyHandler
	Reports      *handler.ReportHandler
	StatusCheck  *handler.StatusCheckHandler
	Health       *handler.HealthHandler
}

// RegisterAgencyRoutes mounts /health on the engine and the /api routes on r.
// Call r.Setup afterwards.
func RegisterAgencyRoutes(engine *gin.Engine, r *Router, h Handlers) {
	engine.GET("/health", h.Health.Check)

	r.RegisterPublic(NewGroup("/status-check").GET("", h.StatusCheck.Check))

	r.Register(
		clientRoutes(h.B2CClients, h.B2BClients),
		transactionRoutes(h.Transactions),
		companyRoutes(h.Companies),
		NewGroup("/reports").GET("", h.Reports.ClientReport),
	)
}

func clientRoutes(b2c *handler.B2CClientHandler, b2b *handler.B2BClientHandler) *Group {
	clients := NewGroup("/clients")

	clients.Sub("/b2c").
		POST("", b2c.Create).
		GET("", b2c.List).
		GET("/archived", b2c.ListArchived).
		GET("/:id", b2c.GetByID).
		PUT("/:id", b2c.Update).
		DELETE("/:id", b2c.Delete).
		POST("/:id/restore", b2c.Restore)

	clients.Sub("/b2b").
		POST("", b2b.Create).
		GET("", b2b.List).
		GET("/:id", b2b.GetByID).
		PUT("/:id", b2b.Update).
		DELETE("/:id", b2b.Delete)

	return clients
}

func transactionRoutes(h *handler.TransactionHandler) *Group {
	return NewGroup("/transactions").
		POST("", h.Record).
		GET("", h.List).
		GET("/balance", h.Balance).
		GET("/:id", h.GetByID).
		PUT("/:id", h.Update).
		DELETE("/:id", h.Delete)
}

func companyRoutes(h *handler.CompanyHandler) *Group {
	companies := NewGroup("/companies").
		GET("/profile", h.GetProfile).
		PUT("/profile", h.UpdateProfile).
		GET("/:id/subscription-status", h.SubscriptionStatus)

	companies.Sub("", middleware.RequireRole(identity.RoleAdmin)).
		GET("", h.List).
		POST("", h.Create).
		PUT("/:id/subscription", h.UpdateSubscription)

	return companies
}
