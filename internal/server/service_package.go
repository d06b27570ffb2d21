package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	servicepackagedomain "github.com/smallbiznis/ispdesk/internal/servicepackage/domain"
)

type servicePackageForm struct {
	Name        flexString  `json:"name" form:"name"`
	Speed       flexString  `json:"speed" form:"speed"`
	Price       flexString  `json:"price" form:"price"`
	Description *flexString `json:"description" form:"description"`
	IsActive    *flexString `json:"is_active" form:"is_active"`
}

func (f servicePackageForm) toRequest() (servicepackagedomain.UpsertServicePackageRequest, error) {
	isActive, err := parseFlexBool("is_active", f.IsActive)
	if err != nil {
		return servicepackagedomain.UpsertServicePackageRequest{}, err
	}
	return servicepackagedomain.UpsertServicePackageRequest{
		Name:        f.Name.String(),
		Speed:       f.Speed.String(),
		Price:       f.Price.String(),
		Description: f.Description.optional(),
		IsActive:    isActive,
	}, nil
}

func (s *Server) ListServicePackages(c *gin.Context) {
	var query struct {
		PageToken string `form:"page_token"`
		PageSize  int    `form:"page_size"`
		Name      string `form:"name"`
		IsActive  string `form:"is_active"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var isActive *bool
	if raw := strings.TrimSpace(query.IsActive); raw != "" {
		value := flexString(raw)
		parsed, err := parseFlexBool("is_active", &value)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		isActive = parsed
	}

	resp, err := s.servicePackageSvc.List(c.Request.Context(), servicepackagedomain.ListServicePackageRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
		IsActive:  isActive,
		Name:      strings.TrimSpace(query.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.ServicePackages, "page_info": resp.PageInfo})
}

func (s *Server) ServicePackageCreateForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"defaults": gin.H{"is_active": true},
	}})
}

func (s *Server) CreateServicePackage(c *gin.Context) {
	var form servicePackageForm
	if err := bindBody(c, &form); err != nil {
		AbortWithError(c, err)
		return
	}
	req, err := form.toRequest()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.servicePackageSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp, "message": "Service package created successfully."})
}

func (s *Server) GetServicePackage(c *gin.Context) {
	resp, err := s.servicePackageSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ServicePackageEditForm(c *gin.Context) {
	resp, err := s.servicePackageSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"service_package": resp}})
}

func (s *Server) UpdateServicePackage(c *gin.Context) {
	var form servicePackageForm
	if err := bindBody(c, &form); err != nil {
		AbortWithError(c, err)
		return
	}
	req, err := form.toRequest()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.servicePackageSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp, "message": "Service package updated successfully."})
}

func (s *Server) DeleteServicePackage(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.servicePackageSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id}, "message": "Service package deleted successfully."})
}
