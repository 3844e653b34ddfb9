//nolint:varnamelen
package echo

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	esignapi "go.pilab.hu/esign/api"
	"go.pilab.hu/esign/domain"
	"go.pilab.hu/esign/dto"
	serrors "go.pilab.hu/esign/errors"
	"go.pilab.hu/esign/internal/document"
	"go.pilab.hu/esign/log"
	"go.pilab.hu/esign/middleware"
	"go.pilab.hu/esign/services"
)

// SigningAPI exposes the envelope lifecycle over HTTP.
type SigningAPI struct {
	lifecycle *services.Lifecycle
	logger    log.Logger
}

// NewSigningAPI initializes the signing API.
func NewSigningAPI(lifecycle *services.Lifecycle, logger log.Logger) *SigningAPI {
	if logger == nil {
		logger = log.Nop()
	}

	return &SigningAPI{lifecycle: lifecycle, logger: logger}
}

// RegisterRoutes registers the signing routes.
func (a *SigningAPI) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/docusign")
	bearer := middleware.BearerToken()

	g.POST("/token", a.TokenHandler)
	g.GET("/signing/callback", a.SigningCallbackHandler)

	g.POST("/templates", a.CreateTemplateHandler, bearer)
	g.POST("/templates/sender-view", a.SenderViewHandler, bearer)
	g.GET("/templates/sender-view", a.SenderViewHandler, bearer)
	g.POST("/envelopes", a.CreateEnvelopeHandler, bearer)
	g.GET("/envelopes/document", a.DownloadDocumentHandler, bearer)
	g.POST("/envelopes/document", a.DownloadDocumentHandler, bearer)
	g.GET("/envelopes/:envelopeId/document", a.DownloadDocumentHandler, bearer)
}

// TokenHandler mints a provider access token for the caller.
func (a *SigningAPI) TokenHandler(c echo.Context) error {
	tok, err := a.lifecycle.Token(c.Request().Context())
	if err != nil {
		a.logger.Error(c.Request().Context(), "failed to generate access token", err)
		return c.JSON(serrors.HTTPStatus(err), dto.TokenIssuedResponse{Success: 0, Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, dto.TokenIssuedResponse{
		Success:     1,
		Message:     "Access token generated successfully",
		AccessToken: &tok.Value,
	})
}

// CreateTemplateHandler turns an uploaded document into a template and
// returns its sender view.
func (a *SigningAPI) CreateTemplateHandler(c echo.Context) error {
	var req esignapi.TemplateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.Response{Success: 0, Message: "Invalid request body"})
	}

	if file, err := c.FormFile("document"); err == nil {
		encoded, err := readUpload(file)
		if err != nil {
			return c.JSON(http.StatusBadRequest, dto.Response{Success: 0, Message: "Failed to read uploaded document"})
		}
		req.Document = encoded
	}

	tpl, err := a.lifecycle.CreateTemplate(c.Request().Context(), middleware.TokenFrom(c), req.AttorneyID, services.CreateTemplateInput{
		DocumentBase64: req.Document,
		FileName:       req.FileName,
		ReturnURL:      req.ReturnURL,
	})
	if err != nil {
		return c.JSON(serrors.HTTPStatus(err), dto.Response{Success: 0, Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, dto.Response{
		Success: 1,
		Message: "Template created successfully",
		Data:    tpl,
	})
}

// SenderViewHandler issues a fresh edit view for an existing template.
func (a *SigningAPI) SenderViewHandler(c echo.Context) error {
	var req esignapi.SenderViewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.SenderViewResponse{Success: 0, Message: "Invalid request body"})
	}

	view, err := a.lifecycle.SenderView(c.Request().Context(), middleware.TokenFrom(c), req.TemplateID, req.ReturnURL)
	if err != nil {
		return c.JSON(serrors.HTTPStatus(err), dto.SenderViewResponse{Success: 0, Message: errorMessage(err)})
	}
	if view == nil {
		return c.JSON(http.StatusOK, dto.SenderViewResponse{Success: 0, Message: "Failed to get sender view URL"})
	}

	return c.JSON(http.StatusOK, dto.SenderViewResponse{
		Success:       1,
		Message:       "Sender view URL generated",
		SenderViewURL: &view.URL,
	})
}

// CreateEnvelopeHandler sends an envelope and returns the signing view.
func (a *SigningAPI) CreateEnvelopeHandler(c echo.Context) error {
	var req esignapi.EnvelopeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.EnvelopeViewResponse{Success: 0, Message: "Invalid request body"})
	}

	sent, err := a.lifecycle.SendEnvelope(c.Request().Context(), middleware.TokenFrom(c), services.SendEnvelopeInput{
		TemplateID: req.TemplateID,
		ReturnURL:  req.ReturnURL,
		DocID:      req.DocID,
		Recipient: domain.Recipient{
			Name:         withDefault(req.Name, esignapi.DefaultRecipientName),
			Email:        withDefault(req.Email, esignapi.DefaultRecipientEmail),
			RoleName:     withDefault(req.RoleName, esignapi.DefaultRoleName),
			ClientUserID: req.ClientUserID,
		},
		AgreementTitle: req.AgreementTitle,
		Agreement:      req.Agreement,
	})
	if err != nil {
		return c.JSON(serrors.HTTPStatus(err), dto.EnvelopeViewResponse{Success: 0, Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, dto.EnvelopeViewResponse{
		Success: 1,
		ID:      sent.RedirectURL,
		Message: "Envelope created and recipient view generated",
		Data: esignapi.EnvelopeData{
			Envelope:      sent.Envelope,
			RecipientView: sent.View.URL,
		},
	})
}

// DownloadDocumentHandler streams the signed document of an envelope.
func (a *SigningAPI) DownloadDocumentHandler(c echo.Context) error {
	var req esignapi.DocumentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.Response{Success: 0, Message: "Invalid request body"})
	}
	if req.EnvelopeID == "" {
		req.EnvelopeID = c.QueryParam("envelopeId")
	}

	pdf, err := a.lifecycle.DownloadSigned(c.Request().Context(), middleware.TokenFrom(c), req.EnvelopeID)
	if err != nil {
		return c.JSON(serrors.HTTPStatus(err), dto.Response{Success: 0, Message: errorMessage(err)})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="signed_document.pdf"`)

	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// SigningCallbackHandler is the provider's redirect target after signing.
func (a *SigningAPI) SigningCallbackHandler(c echo.Context) error {
	var req esignapi.CallbackRequest
	if err := c.Bind(&req); err != nil {
		return c.HTML(http.StatusBadRequest, resultPage("Invalid callback", "The signing callback could not be read."))
	}

	res, err := a.lifecycle.HandleSigningCallback(c.Request().Context(), services.CallbackInput{
		DocID:         req.DocID,
		EnvelopeID:    req.EnvelopeID,
		UserEmail:     req.UserEmail,
		AttorneyEmail: req.AttorneyEmail,
	})
	if err != nil {
		return c.HTML(serrors.HTTPStatus(err), resultPage("Something went wrong", errorMessage(err)))
	}
	if !res.Completed {
		return c.HTML(http.StatusOK, resultPage("Document not signed", fmt.Sprintf("Envelope status: %s", res.Status)))
	}

	msg := "Thank you. Your document has been signed successfully."
	if len(res.MailErrors) > 0 {
		msg += " The signed copy could not be emailed to every recipient."
	}

	return c.HTML(http.StatusOK, resultPage("Document signed", msg))
}

func readUpload(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(raw), nil
}

func errorMessage(err error) string {
	if errors.Is(err, document.ErrInvalidBase64) {
		return "Invalid Base64 string"
	}

	return err.Error()
}

func withDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}

	return v
}

func resultPage(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>%[1]s</title></head>
<body><h1>%[1]s</h1><p>%[2]s</p></body></html>`, html.EscapeString(title), html.EscapeString(message))
}
