package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/ispdesk/internal/customer/domain"
)

type customerForm struct {
	Name             flexString  `json:"name" form:"name"`
	Email            flexString  `json:"email" form:"email"`
	Phone            *flexString `json:"phone" form:"phone"`
	Address          flexString  `json:"address" form:"address"`
	Status           flexString  `json:"status" form:"status"`
	ConnectionDate   flexString  `json:"connection_date" form:"connection_date"`
	ServicePackageID flexString  `json:"service_package_id" form:"service_package_id"`
	Notes            *flexString `json:"notes" form:"notes"`
}

func (f customerForm) toRequest() customerdomain.UpsertCustomerRequest {
	return customerdomain.UpsertCustomerRequest{
		Name:             f.Name.String(),
		Email:            f.Email.String(),
		Phone:            f.Phone.optional(),
		Address:          f.Address.String(),
		Status:           f.Status.String(),
		ConnectionDate:   f.ConnectionDate.String(),
		ServicePackageID: f.ServicePackageID.String(),
		Notes:            f.Notes.optional(),
	}
}

func (s *Server) ListCustomers(c *gin.Context) {
	var query struct {
		PageToken        string `form:"page_token"`
		PageSize         int    `form:"page_size"`
		Status           string `form:"status"`
		ServicePackageID string `form:"service_package_id"`
		Search           string `form:"search"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.List(c.Request.Context(), customerdomain.ListCustomerRequest{
		PageToken:        query.PageToken,
		PageSize:         query.PageSize,
		Status:           strings.TrimSpace(query.Status),
		ServicePackageID: strings.TrimSpace(query.ServicePackageID),
		Search:           strings.TrimSpace(query.Search),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Customers, "page_info": resp.PageInfo})
}

func (s *Server) CustomerCreateForm(c *gin.Context) {
	options, err := s.customerSvc.FormOptions(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": options})
}

func (s *Server) CreateCustomer(c *gin.Context) {
	var form customerForm
	if err := bindBody(c, &form); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.customerSvc.Create(c.Request.Context(), form.toRequest())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp, "message": "Customer created successfully."})
}

func (s *Server) GetCustomer(c *gin.Context) {
	resp, err := s.customerSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CustomerEditForm(c *gin.Context) {
	resp, err := s.customerSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	options, err := s.customerSvc.FormOptions(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"customer":         resp,
		"service_packages": options.ServicePackages,
	}})
}

func (s *Server) UpdateCustomer(c *gin.Context) {
	var form customerForm
	if err := bindBody(c, &form); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.customerSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), form.toRequest())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp, "message": "Customer updated successfully."})
}

func (s *Server) DeleteCustomer(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.customerSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id}, "message": "Customer deleted successfully."})
}
