package controllers

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleDownloadFileRejectsBadContentID(t *testing.T) {
	app := fiber.New()
	app.Get("/nedlastinger/:contentID", HandleDownloadFile)

	for _, param := range []string{"abc", "12abc", "-1", "0"} {
		req := httptest.NewRequest("GET", "/nedlastinger/"+param, nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, "param %q", param)
	}
}

func TestHandleCartRemoveRejectsBadPackageID(t *testing.T) {
	app := fiber.New()
	app.Post("/handlekurv/fjern/:packageID", HandleCartRemove)

	req := httptest.NewRequest("POST", "/handlekurv/fjern/notanumber", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
