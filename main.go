package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"who-dashboard/config"
	"who-dashboard/models"
	"who-dashboard/providers"
	"who-dashboard/providers/whoapi"
	"who-dashboard/services"
	"who-dashboard/storage"
	"who-dashboard/views"
)

const (
	sessionCookie     = "who_session"
	recentRunsOnHome  = 10
	sessionContextKey = "session"
)

// formFields ordnet jeder Operation den Namen ihres Formularfelds zu.
var formFields = map[services.OperationID]string{
	services.OP2: "max_density",
	services.OP3: "cure_id",
	services.OP4: "disease_id",
	services.OP5: "quality",
}

// dashboard bündelt alles, was die Routen brauchen.
type dashboard struct {
	log      *zap.Logger
	donors   providers.DonorsAPI
	tissues  providers.TissuesAPI
	drugs    providers.DrugsAPI
	sessions *services.SessionStore
	health   *services.HealthMonitor
	recorder services.Recorder
	history  bool
	archiver *services.Archiver
	metrics  *services.Metrics
	gatherer prometheus.Gatherer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logging, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(registry)

	// Optionale Run-Historie
	var recorder services.Recorder = services.NopRecorder{}
	if cfg.HistoryEnabled() {
		db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			logging.Fatal("Failed to connect to history database", zap.Error(err))
		}
		logging.Info("Running database auto-migration...")
		if err := db.AutoMigrate(&models.OperationRun{}); err != nil {
			logging.Fatal("Auto-migration failed", zap.Error(err))
		}
		recorder = services.NewGormRecorder(db, logging)
		logging.Info("Run history enabled", zap.String("db_host", cfg.DBHost))
	}

	// Optionales S3-Archiv
	archiver := services.NewArchiver(nil, "", "", logging)
	if cfg.ArchiveEnabled() {
		s3Client, err := storage.NewS3Client(ctx, cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		archiver = services.NewArchiver(s3Client, cfg.ArchiveS3Bucket, cfg.ArchiveS3URL, logging)
		logging.Info("S3 archive enabled", zap.String("bucket", cfg.ArchiveS3Bucket))
	}

	client := whoapi.NewClient(cfg, logging)
	sessions := services.NewSessionStore(ctx, client, services.SessionStoreOptions{
		TTL:      cfg.SessionTTL,
		Timeout:  cfg.BackendTimeout,
		Logger:   logging,
		Metrics:  metrics,
		Recorder: recorder,
	})
	health := services.NewHealthMonitor(client, cfg.BackendTimeout, logging, metrics)

	d := &dashboard{
		log:      logging,
		donors:   client.Donors(),
		tissues:  client.Tissues(),
		drugs:    client.Drugs(),
		sessions: sessions,
		health:   health,
		recorder: recorder,
		history:  cfg.HistoryEnabled(),
		archiver: archiver,
		metrics:  metrics,
		gatherer: registry,
	}

	// Setup Cron
	cronScheduler := cron.New()
	if _, err := health.Schedule(cronScheduler, cfg.HealthCheckSchedule); err != nil {
		logging.Fatal("Invalid health check schedule", zap.String("schedule", cfg.HealthCheckSchedule), zap.Error(err))
	}
	if _, err := cronScheduler.AddFunc(cfg.SessionSweepSchedule, func() { sessions.Sweep() }); err != nil {
		logging.Fatal("Invalid session sweep schedule", zap.String("schedule", cfg.SessionSweepSchedule), zap.Error(err))
	}
	cronScheduler.Start()
	go health.Check(ctx)

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler(newRouter(d))

	logging.Info("Starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("backend", cfg.BackendBaseURL))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Server shutdown failed", zap.Error(err))
	}
	<-cronScheduler.Stop().Done()
	sessions.CloseAll()
	logging.Info("Server stopped")
}

// newRouter baut den gin-Router mit allen Routen.
func newRouter(d *dashboard) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(accessLogMiddleware(d.log))
	router.SetHTMLTemplate(views.Templates())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": d.health.Last()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{})))

	setupHomeRoutes(router, d)
	setupListRoutes(router, d)
	setupOperationRoutes(router, d)
	return router
}

// accessLogMiddleware loggt jede Anfrage über zap.
func accessLogMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}

// sessionMiddleware ordnet jedem Browser über ein Cookie seine Konsolen-Sitzung zu.
func sessionMiddleware(store *services.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(sessionCookie)
		sess, created := store.GetOrCreate(id)
		if created {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, sess.ID, 0, "/", "", false, true)
		}
		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *services.Session {
	return c.MustGet(sessionContextKey).(*services.Session)
}

func setupHomeRoutes(router *gin.Engine, d *dashboard) {
	router.GET("/", func(c *gin.Context) {
		page := views.HomePage{
			Page:           views.NewPage("Dashboard", "/"),
			Health:         d.health.Last(),
			HistoryEnabled: d.history,
		}
		if d.history {
			runs, err := d.recorder.Recent(c.Request.Context(), recentRunsOnHome)
			if err != nil {
				d.log.Error("Loading recent operation runs failed", zap.Error(err))
			}
			page.Runs = runs
		}
		c.HTML(http.StatusOK, "home", page)
	})
}

func setupListRoutes(router *gin.Engine, d *dashboard) {
	listShell := func(resource, title string) gin.HandlerFunc {
		return func(c *gin.Context) {
			page := views.ListPages[resource]
			page.Page = views.NewPage(title, c.Request.URL.Path)
			c.HTML(http.StatusOK, "list", page)
		}
	}

	router.GET("/donors", listShell("donors", "Donors"))
	router.GET("/donors/table", func(c *gin.Context) {
		v := services.NewListView("donors", services.DonorsFetch(d.donors), d.log, d.metrics)
		v.Load(c.Request.Context())
		c.HTML(http.StatusOK, "table", views.DonorTable(v))
	})

	router.GET("/tissues", listShell("tissues", "Tissues"))
	router.GET("/tissues/table", func(c *gin.Context) {
		v := services.NewListView("tissues", services.TissuesFetch(d.tissues), d.log, d.metrics)
		v.Load(c.Request.Context())
		c.HTML(http.StatusOK, "table", views.TissueTable(v))
	})

	router.GET("/drugs", listShell("drugs", "Drugs"))
	router.GET("/drugs/table", func(c *gin.Context) {
		v := services.NewListView("drugs", services.DrugsFetch(d.drugs), d.log, d.metrics)
		v.Load(c.Request.Context())
		c.HTML(http.StatusOK, "table", views.DrugTable(v))
	})
}

func setupOperationRoutes(router *gin.Engine, d *dashboard) {
	rg := router.Group("/operations")
	rg.Use(sessionMiddleware(d.sessions))

	rg.GET("", func(c *gin.Context) {
		console := sessionFrom(c).Console
		if tab := c.Query("tab"); tab != "" {
			id, err := services.ParseOperationID(tab)
			if err != nil {
				c.String(http.StatusNotFound, "unknown tab %q", tab)
				return
			}
			console.SelectTab(id)
		}
		page := views.NewOperationsPage(console.Snapshot(), d.archiver.Enabled())
		page.Archived = c.Query("archived")
		c.HTML(http.StatusOK, "operations", page)
	})

	rg.GET("/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, sessionFrom(c).Console.Snapshot())
	})

	// Post/Redirect/Get: das Ergebnis erscheint nach dem automatischen Neuladen.
	rg.POST("/:op", func(c *gin.Context) {
		id, err := services.ParseOperationID(c.Param("op"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		console := sessionFrom(c).Console
		console.SelectTab(id)
		if err := console.Submit(id, c.PostForm(formFields[id])); err != nil && !errors.Is(err, services.ErrInvalidInput) {
			d.log.Error("Submitting operation failed", zap.String("operation", string(id)), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "operation could not be started"})
			return
		}
		c.Redirect(http.StatusSeeOther, "/operations?tab="+string(id))
	})

	rg.GET("/:op/export", func(c *gin.Context) {
		id, err := services.ParseOperationID(c.Param("op"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		data, err := services.ExportOperation(sessionFrom(c).Console.Snapshot(), id)
		if errors.Is(err, services.ErrNoResult) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no result to export, run the operation first"})
			return
		}
		if err != nil {
			d.log.Error("Export failed", zap.String("operation", string(id)), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-result.xlsx"`, id))
		c.Data(http.StatusOK, storage.XLSXContentType, data)
	})

	rg.POST("/:op/archive", func(c *gin.Context) {
		id, err := services.ParseOperationID(c.Param("op"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		link, err := d.archiver.ArchiveOperation(c.Request.Context(), sessionFrom(c).Console.Snapshot(), id)
		switch {
		case errors.Is(err, services.ErrArchiveDisabled):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		case errors.Is(err, services.ErrNoResult):
			c.JSON(http.StatusNotFound, gin.H{"error": "no result to archive, run the operation first"})
			return
		case err != nil:
			c.JSON(http.StatusBadGateway, gin.H{"error": "archive upload failed"})
			return
		}
		c.Redirect(http.StatusSeeOther, "/operations?tab="+string(id)+"&archived="+url.QueryEscape(link))
	})
}
