package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/ispdesk/internal/payment/domain"
)

type paymentForm struct {
	InvoiceID       flexString  `json:"invoice_id" form:"invoice_id"`
	Amount          flexString  `json:"amount" form:"amount"`
	PaymentDate     flexString  `json:"payment_date" form:"payment_date"`
	PaymentMethod   flexString  `json:"payment_method" form:"payment_method"`
	ReferenceNumber *flexString `json:"reference_number" form:"reference_number"`
	Notes           *flexString `json:"notes" form:"notes"`
}

func (f paymentForm) toRequest() paymentdomain.UpsertPaymentRequest {
	return paymentdomain.UpsertPaymentRequest{
		InvoiceID:       f.InvoiceID.String(),
		Amount:          f.Amount.String(),
		PaymentDate:     f.PaymentDate.String(),
		PaymentMethod:   f.PaymentMethod.String(),
		ReferenceNumber: f.ReferenceNumber.optional(),
		Notes:           f.Notes.optional(),
	}
}

func (s *Server) ListPayments(c *gin.Context) {
	var query struct {
		PageToken     string `form:"page_token"`
		PageSize      int    `form:"page_size"`
		InvoiceID     string `form:"invoice_id"`
		CustomerID    string `form:"customer_id"`
		PaymentMethod string `form:"payment_method"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.List(c.Request.Context(), paymentdomain.ListPaymentRequest{
		PageToken:     query.PageToken,
		PageSize:      query.PageSize,
		InvoiceID:     strings.TrimSpace(query.InvoiceID),
		CustomerID:    strings.TrimSpace(query.CustomerID),
		PaymentMethod: strings.TrimSpace(query.PaymentMethod),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Payments, "page_info": resp.PageInfo})
}

func (s *Server) PaymentCreateForm(c *gin.Context) {
	options, err := s.paymentSvc.FormOptions(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": options})
}

func (s *Server) CreatePayment(c *gin.Context) {
	var form paymentForm
	if err := bindBody(c, &form); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentSvc.Create(c.Request.Context(), form.toRequest())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp, "message": "Payment recorded successfully."})
}

func (s *Server) GetPayment(c *gin.Context) {
	resp, err := s.paymentSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PaymentEditForm(c *gin.Context) {
	resp, err := s.paymentSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	options, err := s.paymentSvc.FormOptions(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"payment":  resp,
		"invoices": options.Invoices,
	}})
}

func (s *Server) UpdatePayment(c *gin.Context) {
	var form paymentForm
	if err := bindBody(c, &form); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), form.toRequest())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp, "message": "Payment updated successfully."})
}

func (s *Server) DeletePayment(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.paymentSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id}, "message": "Payment deleted successfully."})
}
