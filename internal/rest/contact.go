package rest

import (
	"net/http"

	"github.com/dfryer1193/mailmanifest/api"
	contact "github.com/dfryer1193/mailmanifest/contact/domain"
	"github.com/gin-gonic/gin"
)

func (h *handlers) PostContact(c *gin.Context) {
	var req api.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid contact form: "+err.Error())
		return
	}

	id, err := h.contact.Submit(c.Request.Context(), contact.Submission{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Service:  req.Service,
		Message:  req.Message,
	})
	if err != nil {
		writeError(c, err, "Failed to process contact form")
		return
	}

	c.JSON(http.StatusCreated, api.ContactResponse{
		Status:    statusSuccess,
		Message:   "Contact form submitted successfully",
		MessageID: id,
	})
}
