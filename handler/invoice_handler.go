package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kemalcanokcan/efatura-extractor/dto"
	"github.com/kemalcanokcan/efatura-extractor/service"
)

type InvoiceHandler struct {
	extractService *service.ExtractService
}

func NewInvoiceHandler(extractService *service.ExtractService) *InvoiceHandler {
	return &InvoiceHandler{
		extractService: extractService,
	}
}

// ExtractInvoice handles the POST /invoice/extract endpoint
func (h *InvoiceHandler) ExtractInvoice(c *gin.Context) {
	log.Println("Received invoice extraction request")

	var request dto.ExtractRequest
	if err := c.ShouldBind(&request); err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to parse multipart form", err)
		return
	}
	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	file, err := request.File.Open()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to open uploaded file", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to read uploaded file", err)
		return
	}

	log.Printf("Processing document %s (%d bytes)", request.File.Filename, len(data))

	response, err := h.extractService.ProcessDocument(c.Request.Context(), request.File.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, dto.ErrUnsupportedFormat):
			h.sendError(c, http.StatusUnsupportedMediaType, "Unsupported document format", err)
		case errors.Is(err, dto.ErrNoContent):
			h.sendError(c, http.StatusUnprocessableEntity, "No extractable content in document", err)
		default:
			h.sendError(c, http.StatusInternalServerError, "Failed to extract invoice", err)
		}
		return
	}

	log.Println("Invoice extraction completed successfully")
	c.JSON(http.StatusOK, response)
}

// sendError sends a structured error response
func (h *InvoiceHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		log.Printf("Error: %s - %v", message, err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: errorMsg,
		Code:    statusCode,
	})
}
