package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/kemalcanokcan/efatura-extractor/client"
	"github.com/kemalcanokcan/efatura-extractor/config"
	"github.com/kemalcanokcan/efatura-extractor/handler"
	"github.com/kemalcanokcan/efatura-extractor/service"
	"github.com/kemalcanokcan/efatura-extractor/utils"
)

func main() {
	// Initialize configuration
	cfg := config.LoadConfig()

	// Initialize OCR client
	tesseractClient := client.NewTesseractClient(cfg.TesseractDataPath, cfg.OCRLanguage)
	defer tesseractClient.Close()

	// Initialize PDF processor and QR decoder
	pdfProcessor := service.NewPDFProcessor()
	qrDecoder := client.NewQRDecoder()

	// Geocoding is optional enrichment; only wire it when a key is set
	var geocoder client.Geocoder
	if cfg.GeocodeAPIKey != "" {
		geocoder = client.NewGoogleGeocoder(cfg.GeocodeAPIKey)
	}

	parseOpts := utils.DefaultOptions()
	parseOpts.DefaultVATRate = cfg.DefaultVATRate
	parseOpts.Correspondents = cfg.Correspondents(parseOpts.Correspondents)

	// Initialize service layer
	extractService := service.NewExtractService(pdfProcessor, tesseractClient, qrDecoder, geocoder, parseOpts)

	// Initialize handler layer
	invoiceHandler := handler.NewInvoiceHandler(extractService)

	// Setup Gin router
	router := gin.Default()

	// Configure max multipart memory from MAX_FILE_SIZE
	router.MaxMultipartMemory = cfg.MaxFileSize

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "E-Fatura Extraction",
		})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		invoice := api.Group("/invoice")
		{
			invoice.POST("/extract", invoiceHandler.ExtractInvoice)
		}
	}

	// Start server
	log.Printf("Starting E-Fatura Extraction Service on port %s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
