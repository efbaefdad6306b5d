package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/database"
)

// RouterConfig holds all dependencies needed to create the HTTP router.
type RouterConfig struct {
	Database *database.Database

	Categories CategoryStore
	Books      BookStore
	Patrons    PatronStore
	Loans      LoanStore

	// Events is optional. Without it /api/events is not registered.
	Events            EventSubscriber
	HeartbeatInterval time.Duration

	// TaskClient is optional. Without it task endpoints are not registered.
	TaskClient TaskQueue

	LoanPeriodDays int
	Version        string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	healthController := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", healthController.Status)

	api := router.Group("/api")

	categoriesController := NewCategoriesController(cfg.Categories)
	api.GET("/categories", categoriesController.ListCategories)
	api.POST("/categories", categoriesController.CreateCategory)
	api.GET("/categories/:id", categoriesController.GetCategory)
	api.PUT("/categories/:id", categoriesController.UpdateCategory)
	api.DELETE("/categories/:id", categoriesController.DeleteCategory)

	booksController := NewBooksController(cfg.Books, cfg.Loans)
	api.GET("/books", booksController.ListBooks)
	api.POST("/books", booksController.CreateBook)
	api.GET("/books/:id", booksController.GetBook)
	api.PUT("/books/:id", booksController.UpdateBook)
	api.DELETE("/books/:id", booksController.DeleteBook)
	api.GET("/books/:id/availability", booksController.GetAvailability)

	patronsController := NewPatronsController(cfg.Patrons)
	api.GET("/patrons", patronsController.ListPatrons)
	api.POST("/patrons", patronsController.CreatePatron)
	api.GET("/patrons/:id", patronsController.GetPatron)
	api.PUT("/patrons/:id", patronsController.UpdatePatron)
	api.DELETE("/patrons/:id", patronsController.DeletePatron)

	loansController := NewLoansController(cfg.Loans, cfg.LoanPeriodDays)
	api.GET("/loans", loansController.ListOutstanding)
	api.GET("/loans/history", loansController.ListHistory)
	api.GET("/loans/overdue", loansController.ListOverdue)
	api.GET("/loans/:id", loansController.GetLoan)
	api.POST("/loans", loansController.Borrow)
	api.POST("/loans/:id/return", loansController.Return)

	if cfg.Events != nil {
		eventsController := NewEventsController(cfg.Events, cfg.HeartbeatInterval)
		api.GET("/events", eventsController.Stream)
	}

	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient)
		api.POST("/tasks/overdue-report", tasksController.RunOverdueReport)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
	}

	return router
}
