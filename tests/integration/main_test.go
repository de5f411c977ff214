package integration

import (
	"fmt"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/joaodebarro/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	decimal.MarshalJSONWithoutQuotes = true
	if err := middleware.SetupValidator(); err != nil {
		fmt.Fprintf(os.Stderr, "register validators: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}
