package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/juridiskporten/portal/internal/pkg/catalog"
)

type MainController struct {
	catalog *catalog.Service
}

var mainController *MainController

func InitializeMainController(cat *catalog.Service) {
	mainController = &MainController{catalog: cat}
}

// HandleStart renders the landing page with the active package catalog.
func HandleStart(c *fiber.Ctx) error {
	packages, err := mainController.catalog.ListActive()
	if err != nil {
		log.Errorf("[Main] Failed to load package catalog: %v", err)
		packages = nil
	}

	data := baseViewData(c, "JuridiskPorten")
	data["Flash"] = flash.Get(c)
	data["Packages"] = packages
	return c.Render("index", data, "layouts/main")
}

func HandleAbout(c *fiber.Ctx) error {
	data := baseViewData(c, "Om JuridiskPorten")
	return c.Render("about", data, "layouts/main")
}
