// Package api exposes classification, the audit ledger and the learning
// store over HTTP.
package api

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/shiwake/internal/bank"
	"github.com/Veraticus/shiwake/internal/engine"
	"github.com/Veraticus/shiwake/internal/service"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Options configures optional server behaviour.
type Options struct {
	Logger *slog.Logger
	// UploadDir holds uploaded invoices while they are processed.
	// Empty uses the system temp directory.
	UploadDir string
	// MaxBatchFiles caps a batch upload; zero means defaultMaxBatchFiles.
	MaxBatchFiles int
	// TLS serves HTTPS when set.
	TLS *tls.Config
}

const defaultMaxBatchFiles = 200

// Server holds the handlers' dependencies.
type Server struct {
	classifier *engine.Classifier
	pipeline   *engine.Pipeline
	journal    *engine.Journal
	importer   *bank.Importer
	ledger     service.Ledger
	learning   service.LearningStore
	logger     *slog.Logger
	uploadDir  string
	tls        *tls.Config
	maxBatch   int
}

// NewServer creates a server.
func NewServer(classifier *engine.Classifier, pipeline *engine.Pipeline, ledger service.Ledger, learning service.LearningStore, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxBatchFiles <= 0 {
		opts.MaxBatchFiles = defaultMaxBatchFiles
	}
	return &Server{
		classifier: classifier,
		pipeline:   pipeline,
		journal:    engine.NewJournal(classifier.Index()),
		importer:   bank.NewImporter(classifier.Index()),
		ledger:     ledger,
		learning:   learning,
		logger:     opts.Logger,
		uploadDir:  opts.UploadDir,
		maxBatch:   opts.MaxBatchFiles,
		tls:        opts.TLS,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(s.logger), gin.Recovery())

	api := r.Group("/api")
	api.GET("/health", s.health)
	api.POST("/classify", s.classify)

	invoice := api.Group("/invoice")
	{
		invoice.POST("/upload", s.uploadInvoice)
		invoice.POST("/batch", s.uploadBatch)
	}

	history := api.Group("/history")
	{
		history.POST("/entries", s.appendEntry)
		history.POST("/entries/batch", s.appendBatch)
		history.GET("/entries", s.listEntries)
		history.GET("/entries/:id", s.getEntry)
		history.GET("/stats", s.stats)
		history.GET("/exports", s.listExports)
		history.GET("/exports/:id", s.getExport)
		history.POST("/exports", s.recordExport)
	}

	api.POST("/csv/generate", s.generateCSV)

	api.POST("/sales/create", s.createEntry(engine.KindSales))
	api.POST("/purchase/create", s.createEntry(engine.KindPurchase))

	payment := api.Group("/payment")
	{
		payment.POST("/receive", s.createEntry(engine.KindPaymentReceived))
		payment.POST("/make", s.createEntry(engine.KindPurchasePayment))
	}

	statement := api.Group("/bank")
	{
		statement.POST("/import", s.importStatement)
		statement.POST("/match", s.matchTransaction)
	}

	learn := api.Group("/learn")
	{
		learn.POST("/save", s.saveCorrection)
		learn.GET("/list", s.listCorrections)
		learn.DELETE("/:signature", s.deleteCorrection)
		learn.DELETE("", s.clearCorrections)
	}

	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig:         s.tls,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", slog.String("addr", addr), slog.Bool("tls", s.tls != nil))
		if s.tls != nil {
			errCh <- srv.ListenAndServeTLS("", "")
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("Server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}
