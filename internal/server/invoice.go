package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/ispdesk/internal/invoice/domain"
)

type invoiceForm struct {
	CustomerID    flexString  `json:"customer_id" form:"customer_id"`
	Amount        flexString  `json:"amount" form:"amount"`
	InvoiceDate   flexString  `json:"invoice_date" form:"invoice_date"`
	DueDate       flexString  `json:"due_date" form:"due_date"`
	BillingPeriod flexString  `json:"billing_period" form:"billing_period"`
	Description   *flexString `json:"description" form:"description"`
	Status        flexString  `json:"status" form:"status"`
}

func (f invoiceForm) toCreateRequest() invoicedomain.CreateInvoiceRequest {
	return invoicedomain.CreateInvoiceRequest{
		CustomerID:    f.CustomerID.String(),
		Amount:        f.Amount.String(),
		InvoiceDate:   f.InvoiceDate.String(),
		DueDate:       f.DueDate.String(),
		BillingPeriod: f.BillingPeriod.String(),
		Description:   f.Description.optional(),
	}
}

func (f invoiceForm) toUpdateRequest() invoicedomain.UpdateInvoiceRequest {
	return invoicedomain.UpdateInvoiceRequest{
		CreateInvoiceRequest: f.toCreateRequest(),
		Status:               f.Status.String(),
	}
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		PageToken  string `form:"page_token"`
		PageSize   int    `form:"page_size"`
		Status     string `form:"status"`
		CustomerID string `form:"customer_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		PageToken:  query.PageToken,
		PageSize:   query.PageSize,
		Status:     strings.TrimSpace(query.Status),
		CustomerID: strings.TrimSpace(query.CustomerID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Invoices, "page_info": resp.PageInfo})
}

func (s *Server) InvoiceCreateForm(c *gin.Context) {
	options, err := s.invoiceSvc.FormOptions(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": options})
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var form invoiceForm
	if err := bindBody(c, &form); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), form.toCreateRequest())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp, "message": "Invoice created successfully."})
}

func (s *Server) GetInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) InvoiceEditForm(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	options, err := s.invoiceSvc.FormOptions(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"invoice":   resp,
		"customers": options.Customers,
	}})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	var form invoiceForm
	if err := bindBody(c, &form); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), form.toUpdateRequest())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp, "message": "Invoice updated successfully."})
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.invoiceSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id}, "message": "Invoice deleted successfully."})
}

func (s *Server) RefreshInvoiceStatuses(c *gin.Context) {
	resp, err := s.invoiceSvc.RefreshStatuses(c.Request.Context(), s.clock.Now())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp, "message": "Invoice statuses refreshed."})
}
