package controllers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/juridiskporten/portal/app/models"
	"github.com/juridiskporten/portal/app/repository"
	"github.com/juridiskporten/portal/internal/pkg/catalog"
	"github.com/juridiskporten/portal/internal/pkg/jobqueue"
	"github.com/juridiskporten/portal/internal/pkg/mail"
	"github.com/juridiskporten/portal/internal/pkg/orders"
	"github.com/juridiskporten/portal/internal/pkg/subscription"
)

const adminPageSize = 50

// AdminController handles the admin backend using the repository pattern.
type AdminController struct {
	repos   *repository.Repositories
	subs    *subscription.Service
	catalog *catalog.Service
}

// NewAdminController creates an admin controller with its dependencies.
func NewAdminController(repos *repository.Repositories, subs *subscription.Service, cat *catalog.Service) *AdminController {
	return &AdminController{
		repos:   repos,
		subs:    subs,
		catalog: cat,
	}
}

var adminController *AdminController

func InitializeAdminController(subs *subscription.Service, cat *catalog.Service) {
	adminController = NewAdminController(repository.GetGlobalRepositories(), subs, cat)
}

func GetAdminController() *AdminController {
	return adminController
}

// handleError handles admin errors consistently
func (ac *AdminController) handleError(c *fiber.Ctx, message string, err error) error {
	log.Errorf("[Admin] %s: %v", message, err)

	fm := fiber.Map{
		"type":    "error",
		"message": message,
	}

	redirectPath := "/admin"
	switch {
	case strings.Contains(c.Path(), "/brukere"):
		redirectPath = "/admin/brukere"
	case strings.Contains(c.Path(), "/pakker"):
		redirectPath = "/admin/pakker"
	case strings.Contains(c.Path(), "/tilgangslogg"):
		redirectPath = "/admin/tilgangslogg"
	}

	return flash.WithError(c, fm).Redirect(redirectPath)
}

// HandleDashboard renders the admin dashboard with platform totals.
func (ac *AdminController) HandleDashboard(c *fiber.Ctx) error {
	totalUsers, err := ac.repos.User.Count()
	if err != nil {
		return ac.handleError(c, "Kunne ikke hente brukertall", err)
	}

	totalPackages, err := ac.repos.Package.Count()
	if err != nil {
		return ac.handleError(c, "Kunne ikke hente pakketall", err)
	}

	deniedLastWeek, err := ac.repos.AccessAttempt.Count(repository.AccessAttemptFilter{
		Outcome: models.AccessOutcomeDenied,
		From:    time.Now().AddDate(0, 0, -7),
	})
	if err != nil {
		return ac.handleError(c, "Kunne ikke hente tilgangsstatistikk", err)
	}

	recentUsers, err := ac.repos.User.List(0, 5)
	if err != nil {
		return ac.handleError(c, "Kunne ikke hente siste brukere", err)
	}

	// Per-package active subscriber counts for the dashboard table.
	packages, err := ac.repos.Package.List(0, adminPageSize)
	if err != nil {
		return ac.handleError(c, "Kunne ikke hente pakker", err)
	}
	subscriberCounts := make(map[uint]int64, len(packages))
	for _, pkg := range packages {
		count, err := ac.repos.Subscription.CountEntitlingByPackage(pkg.ID)
		if err != nil {
			log.Warnf("[Admin] Failed to count subscribers for package %d: %v", pkg.ID, err)
			continue
		}
		subscriberCounts[pkg.ID] = count
	}

	data := baseViewData(c, "Admin")
	data["Flash"] = flash.Get(c)
	data["TotalUsers"] = totalUsers
	data["TotalPackages"] = totalPackages
	data["DeniedLastWeek"] = deniedLastWeek
	data["RecentUsers"] = recentUsers
	data["Packages"] = packages
	data["SubscriberCounts"] = subscriberCounts
	return c.Render("admin/dashboard", data, "layouts/main")
}

// HandleUsers renders the paginated user management page.
func (ac *AdminController) HandleUsers(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	if query := c.Query("q"); query != "" {
		users, err := ac.repos.User.Search(query)
		if err != nil {
			return ac.handleError(c, "Søket feilet", err)
		}
		data := baseViewData(c, "Brukere")
		data["Flash"] = flash.Get(c)
		data["Users"] = users
		data["Query"] = query
		return c.Render("admin/users", data, "layouts/main")
	}

	total, err := ac.repos.User.Count()
	if err != nil {
		return ac.handleError(c, "Kunne ikke hente brukertall", err)
	}

	users, err := ac.repos.User.List((page-1)*adminPageSize, adminPageSize)
	if err != nil {
		return ac.handleError(c, "Kunne ikke hente brukere", err)
	}

	data := baseViewData(c, "Brukere")
	data["Flash"] = flash.Get(c)
	data["Users"] = users
	data["Page"] = page
	data["TotalUsers"] = total
	return c.Render("admin/users", data, "layouts/main")
}

// HandleUserEdit renders one user with their subscriptions.
func (ac *AdminController) HandleUserEdit(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Redirect("/admin/brukere")
	}

	user, err := ac.repos.User.GetByID(uint(id))
	if err != nil || user == nil {
		return ac.handleError(c, "Brukeren finnes ikke", err)
	}

	subs, err := ac.repos.Subscription.ListByUser(user.ID)
	if err != nil {
		return ac.handleError(c, "Kunne ikke hente abonnementer", err)
	}

	packages, err := ac.repos.Package.GetActive()
	if err != nil {
		return ac.handleError(c, "Kunne ikke hente pakker", err)
	}

	data := baseViewData(c, "Rediger bruker")
	data["Flash"] = flash.Get(c)
	data["User"] = user
	data["Subscriptions"] = subs
	data["Packages"] = packages
	return c.Render("admin/user_edit", data, "layouts/main")
}

// HandleUserUpdate applies role and status changes to a user.
func (ac *AdminController) HandleUserUpdate(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Redirect("/admin/brukere")
	}

	user, err := ac.repos.User.GetByID(uint(id))
	if err != nil || user == nil {
		return ac.handleError(c, "Brukeren finnes ikke", err)
	}

	if role := c.FormValue("role"); role != "" {
		switch role {
		case models.ROLE_CLIENT, models.ROLE_LAWYER, models.ROLE_ADMIN:
			user.Role = role
		default:
			return ac.handleError(c, "Ugyldig rolle", nil)
		}
	}
	if status := c.FormValue("status"); status != "" {
		switch status {
		case models.STATUS_ACTIVE, models.STATUS_INACTIVE, models.STATUS_DISABLED:
			user.Status = status
		default:
			return ac.handleError(c, "Ugyldig status", nil)
		}
	}
	user.Name = c.FormValue("name", user.Name)
	user.Organization = c.FormValue("organization", user.Organization)

	if err := ac.repos.User.Update(user); err != nil {
		return ac.handleError(c, "Kunne ikke lagre brukeren", err)
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Brukeren er oppdatert",
	}
	return flash.WithSuccess(c, fm).Redirect("/admin/brukere/rediger/" + c.Params("id"))
}

// HandleGrantSubscription manually activates a package for a user, for
// support cases and invoiced enterprise customers.
func (ac *AdminController) HandleGrantSubscription(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Redirect("/admin/brukere")
	}
	packageID, err := strconv.ParseUint(c.FormValue("package_id"), 10, 32)
	if err != nil {
		return ac.handleError(c, "Ugyldig pakke", err)
	}

	var duration *time.Duration
	if days, err := strconv.Atoi(c.FormValue("duration_days")); err == nil && days > 0 {
		d := time.Duration(days) * 24 * time.Hour
		duration = &d
	} else {
		d := orders.SubscriptionTerm
		duration = &d
	}

	_, err = ac.subs.Activate(subscription.Activation{
		UserID:           uint(userID),
		PackageID:        uint(packageID),
		Now:              time.Now(),
		Duration:         duration,
		Trial:            c.FormValue("trial") == "on",
		PaymentReference: "admin:" + c.FormValue("reference"),
	})
	if err != nil {
		return ac.handleError(c, "Kunne ikke aktivere abonnementet", err)
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Abonnementet er aktivert",
	}
	return flash.WithSuccess(c, fm).Redirect("/admin/brukere/rediger/" + c.Params("id"))
}

// HandleRevokeSubscription cancels one subscription row.
func (ac *AdminController) HandleRevokeSubscription(c *fiber.Ctx) error {
	subID, err := strconv.ParseUint(c.Params("subID"), 10, 32)
	if err != nil {
		return c.Redirect("/admin/brukere")
	}

	if err := ac.subs.Cancel(uint(subID)); err != nil {
		return ac.handleError(c, "Kunne ikke kansellere abonnementet", err)
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Abonnementet er kansellert",
	}
	return flash.WithSuccess(c, fm).Redirect("/admin/brukere/rediger/" + c.Params("id"))
}

// HandleAccessLog browses the append-only access audit trail.
func (ac *AdminController) HandleAccessLog(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	filter := repository.AccessAttemptFilter{
		Outcome: c.Query("outcome"),
	}
	if userID, err := strconv.ParseUint(c.Query("user_id"), 10, 32); err == nil {
		filter.UserID = uint(userID)
	}
	if packageID, err := strconv.ParseUint(c.Query("package_id"), 10, 32); err == nil {
		filter.PackageID = uint(packageID)
	}
	if from, err := time.Parse("2006-01-02", c.Query("from")); err == nil {
		filter.From = from
	}
	if to, err := time.Parse("2006-01-02", c.Query("to")); err == nil {
		filter.To = to.AddDate(0, 0, 1)
	}

	attempts, err := ac.repos.AccessAttempt.List(filter, (page-1)*adminPageSize, adminPageSize)
	if err != nil {
		return ac.handleError(c, "Kunne ikke hente tilgangsloggen", err)
	}

	total, err := ac.repos.AccessAttempt.Count(filter)
	if err != nil {
		return ac.handleError(c, "Kunne ikke telle tilgangsloggen", err)
	}

	data := baseViewData(c, "Tilgangslogg")
	data["Flash"] = flash.Get(c)
	data["Attempts"] = attempts
	data["Page"] = page
	data["TotalAttempts"] = total
	data["Filter"] = filter
	return c.Render("admin/access_log", data, "layouts/main")
}

// HandlePackages lists all packages for management.
func (ac *AdminController) HandlePackages(c *fiber.Ctx) error {
	packages, err := ac.repos.Package.List(0, adminPageSize)
	if err != nil {
		return ac.handleError(c, "Kunne ikke hente pakker", err)
	}

	data := baseViewData(c, "Pakker")
	data["Flash"] = flash.Get(c)
	data["Packages"] = packages
	return c.Render("admin/packages", data, "layouts/main")
}

// HandlePackageSave creates or updates a package and drops the catalog
// cache so the storefront reflects the change immediately.
func (ac *AdminController) HandlePackageSave(c *fiber.Ctx) error {
	var pkg *models.LegalPackage
	if idParam := c.Params("id"); idParam != "" {
		id, err := strconv.ParseUint(idParam, 10, 32)
		if err != nil {
			return c.Redirect("/admin/pakker")
		}
		pkg, err = ac.repos.Package.GetByID(uint(id))
		if err != nil || pkg == nil {
			return ac.handleError(c, "Pakken finnes ikke", err)
		}
	} else {
		pkg = &models.LegalPackage{}
	}

	pkg.Name = c.FormValue("name", pkg.Name)
	pkg.PackageType = c.FormValue("package_type", pkg.PackageType)
	pkg.Description = c.FormValue("description", pkg.Description)
	if price, err := strconv.ParseInt(c.FormValue("price_ore"), 10, 64); err == nil {
		pkg.PriceOre = price
	}
	if level := c.FormValue("access_level"); level != "" {
		pkg.AccessLevel = level
	}
	pkg.IsActive = c.FormValue("is_active") == "on"
	pkg.IsFeatured = c.FormValue("is_featured") == "on"
	pkg.RequiresSubscription = c.FormValue("requires_subscription", "on") == "on"

	var err error
	if pkg.ID == 0 {
		err = ac.repos.Package.Create(pkg)
	} else {
		err = ac.repos.Package.Update(pkg)
	}
	if err != nil {
		return ac.handleError(c, "Kunne ikke lagre pakken", err)
	}

	ac.catalog.Invalidate()

	fm := fiber.Map{
		"type":    "success",
		"message": "Pakken er lagret",
	}
	return flash.WithSuccess(c, fm).Redirect("/admin/pakker")
}

// HandleResendActivation issues a fresh activation token and mails it.
func (ac *AdminController) HandleResendActivation(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Redirect("/admin/brukere")
	}

	user, err := ac.repos.User.GetByID(uint(id))
	if err != nil || user == nil {
		return ac.handleError(c, "Brukeren finnes ikke", err)
	}

	if user.Status == models.STATUS_ACTIVE {
		return ac.handleError(c, "Brukeren er allerede aktivert", nil)
	}

	if err := user.GenerateActivationToken(); err != nil {
		return ac.handleError(c, "Kunne ikke generere aktiveringstoken", err)
	}
	if err := ac.repos.User.Update(user); err != nil {
		return ac.handleError(c, "Kunne ikke lagre aktiveringstokenet", err)
	}

	subject, body := mail.ActivationMail(user)
	if _, err := jobqueue.GetManager().GetQueue().EnqueueMail(user.Email, subject, body); err != nil {
		return ac.handleError(c, "Kunne ikke sende aktiveringsmail", err)
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Aktiveringsmail er sendt på nytt",
	}
	return flash.WithSuccess(c, fm).Redirect("/admin/brukere")
}
