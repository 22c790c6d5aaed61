package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/juridiskporten/portal/app/repository"
	apiv1 "github.com/juridiskporten/portal/internal/api/v1"
	"github.com/juridiskporten/portal/internal/pkg/access"
	"github.com/juridiskporten/portal/internal/pkg/catalog"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "JuridiskPorten API",
		})
	})

	repos := repository.GetGlobalRepositories()
	apiServer := apiv1.NewAPIServer(
		catalog.NewService(repos.Package),
		access.NewEvaluator(access.NewRepositoryStore(repos)),
	)

	v1 := api.Group("/v1")
	apiv1.RegisterHandlers(v1, apiServer)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
