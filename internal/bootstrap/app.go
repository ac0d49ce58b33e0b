package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/locvowork/fleet_management_sample/internal/config"
	"github.com/locvowork/fleet_management_sample/internal/database"
	"github.com/locvowork/fleet_management_sample/internal/handler"
	"github.com/locvowork/fleet_management_sample/internal/logger"
	"github.com/locvowork/fleet_management_sample/internal/repository"
	"github.com/locvowork/fleet_management_sample/internal/service"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit/driver"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit/driver/excelizedriver"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit/formatter"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit/style"
)

type App struct {
	Echo      *echo.Echo
	DB        *sql.DB
	Search    *database.ElasticSearchClient
	Datastore *database.DatastoreClient
	Exports   *service.ExportService
}

func NewApp() *App {
	e := echo.New()
	e.HideBanner = true
	return &App{Echo: e}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	cfg := config.DefaultEnvConfig

	logger.InitLogging(cfg.LOG_FILE_PATH, cfg.LOG_LEVEL, cfg.LOG_PRETTY)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	db, err := database.NewPostgresDB(ctx, database.Config{
		Host:            cfg.DB_HOST,
		Port:            cfg.DB_PORT,
		User:            cfg.DB_USER,
		Password:        cfg.DB_PASSWORD,
		DBName:          cfg.DB_NAME,
		SSLMode:         cfg.DB_SSL_MODE,
		MaxOpenConns:    cfg.DB_MAX_OPEN_CONNS,
		MaxIdleConns:    cfg.DB_MAX_IDLE_CONNS,
		ConnMaxLifetime: cfg.DB_CONN_MAX_LIFETIME,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.DB = db

	fleetRepo := repository.NewFleetRepository(db)
	sources := service.Sources{
		Customers: fleetRepo,
		Vehicles:  fleetRepo,
		Orders:    fleetRepo,
	}

	if cfg.ES_URL != "" {
		es, err := database.NewElasticSearchClient(cfg.ES_URL, cfg.ES_ORDER_INDEX)
		if err != nil {
			return err
		}
		a.Search = es
		sources.OrderSearch = repository.NewOrderSearchRepository(es, cfg.EXPORT_SCROLL_SIZE)
	} else {
		logger.WarnLog(ctx, "ES_URL not set, order search export disabled")
	}

	if cfg.DATASTORE_PROJECT != "" {
		ds, err := database.NewDatastoreClient(ctx, cfg.DATASTORE_PROJECT)
		if err != nil {
			return err
		}
		a.Datastore = ds
		sources.Costs = repository.NewCostRepository(ds)
	} else {
		logger.WarnLog(ctx, "DATASTORE_PROJECT not set, cost exports disabled")
	}

	exports, err := service.NewExportService(NewEngine(), sources,
		service.WithCreator(cfg.EXPORT_CREATOR),
		service.WithMaxRows(cfg.EXPORT_MAX_ROWS),
	)
	if err != nil {
		return fmt.Errorf("failed to load report catalogue: %w", err)
	}
	a.Exports = exports

	mode, err := driver.ParseMode(cfg.EXPORT_MODE)
	if err != nil {
		return fmt.Errorf("EXPORT_MODE: %w", err)
	}
	exportHandler := handler.NewExportHandler(exports, mode, cfg.EXPORT_TIMEOUT)

	a.RegisterMiddlewares()
	a.RegisterRoutes(exportHandler)
	return nil
}

// NewEngine builds the excel service on the excelize driver with the default
// formatter and style catalogues, logging through the global logger.
func NewEngine() *excelkit.Service {
	l := logger.Global()
	return excelkit.NewService(
		excelizedriver.New(excelizedriver.WithLogger(l)),
		formatter.NewDefaultRegistry(formatter.WithLogger(l)),
		style.NewDefaultRegistry(style.WithLogger(l)),
		excelkit.WithLogger(l),
		excelkit.WithPlugins(excelkit.NewLoggingPlugin(l)),
	)
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.RequestID())
	a.Echo.Use(middleware.Logger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		ExposeHeaders: []string{echo.HeaderContentDisposition, "X-Export-ID"},
	}))
}

func (a *App) RegisterRoutes(exportHandler *handler.ExportHandler) {
	exportGroup := a.Echo.Group("/export")
	exportGroup.GET("", exportHandler.ListReportsHandler)
	exportGroup.GET("/:report", exportHandler.DownloadHandler)
}

func (a *App) Run() error {
	return a.Echo.Start(":" + config.DefaultEnvConfig.APP_PORT)
}

// Shutdown stops the server and releases the stores.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	if a.Datastore != nil {
		a.Datastore.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
	return err
}
