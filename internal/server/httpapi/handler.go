package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/trackshare/internal/server/gql"
	"github.com/gin-gonic/gin"
)

func (s *Server) graphql(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxBodyBytes)

	var req gql.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": []gin.H{{"message": "Request body must be a GraphQL JSON document"}},
		})
		return
	}
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": []gin.H{{"message": "Missing query"}},
		})
		return
	}

	resp := s.exec.Execute(c.Request.Context(), req)
	c.JSON(http.StatusOK, resp)
}
