package controllers

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/juridiskporten/portal/app/models"
	"github.com/juridiskporten/portal/app/repository"
	"github.com/juridiskporten/portal/internal/pkg/catalog"
	"github.com/juridiskporten/portal/internal/pkg/env"
	"github.com/juridiskporten/portal/internal/pkg/metrics/counter"
	"github.com/juridiskporten/portal/internal/pkg/middleware"
	"github.com/juridiskporten/portal/internal/pkg/security"
	"github.com/juridiskporten/portal/internal/pkg/usercontext"
)

const downloadTokenTTL = 15 * time.Minute

// contentListPageSize caps gated content listings per page.
const contentListPageSize = 25

// recentProgressLimit caps the recently-read list on min-side.
const recentProgressLimit = 10

type PackageController struct {
	catalog *catalog.Service
	content repository.ContentRepository
}

var packageController *PackageController

func InitializePackageController(cat *catalog.Service) {
	packageController = &PackageController{
		catalog: cat,
		content: repository.GetGlobalFactory().GetContentRepository(),
	}
}

// HandlePackageList shows the public catalog of purchasable packages.
func HandlePackageList(c *fiber.Ctx) error {
	packages, err := packageController.catalog.ListActive()
	if err != nil {
		log.Errorf("[Package] Failed to load catalog: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Kunne ikke laste pakkekatalogen")
	}

	data := baseViewData(c, "Juridiske pakker")
	data["Flash"] = flash.Get(c)
	data["Packages"] = packages
	return c.Render("packages/index", data, "layouts/main")
}

// HandlePackageShow is the public sales page for one package. No access
// check here, the gated routes start one level below.
func HandlePackageShow(c *fiber.Ctx) error {
	slug := c.Params("packageSlug")
	pkg, err := packageController.catalog.GetBySlug(slug)
	if err != nil {
		log.Errorf("[Package] Lookup failed for %s: %v", slug, err)
		return fiber.NewError(fiber.StatusInternalServerError, "Noe gikk galt")
	}
	if pkg == nil || !pkg.IsActive {
		return fiber.NewError(fiber.StatusNotFound, "Pakken finnes ikke")
	}

	data := baseViewData(c, pkg.Name)
	data["Flash"] = flash.Get(c)
	data["Package"] = pkg
	return c.Render("packages/show", data, "layouts/main")
}

// gatedPackage reads the package the access gate resolved and stored.
func gatedPackage(c *fiber.Ctx) (*models.LegalPackage, error) {
	pkg, ok := c.Locals(middleware.PackageLocalsKey).(*models.LegalPackage)
	if !ok || pkg == nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Noe gikk galt")
	}
	return pkg, nil
}

// HandlePackageContent lists published content inside a gated package,
// optionally filtered by content type.
func HandlePackageContent(c *fiber.Ctx) error {
	pkg, err := gatedPackage(c)
	if err != nil {
		return err
	}

	contentType := c.Query("type")
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * contentListPageSize

	items, err := packageController.content.ListPublishedByPackage(pkg.ID, contentType, offset, contentListPageSize)
	if err != nil {
		log.Errorf("[Package] Failed to list content for package %d: %v", pkg.ID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "Kunne ikke laste innholdet")
	}

	total, err := packageController.content.CountPublishedByPackage(pkg.ID)
	if err != nil {
		log.Warnf("[Package] Failed to count content for package %d: %v", pkg.ID, err)
	}

	data := baseViewData(c, pkg.Name)
	data["Flash"] = flash.Get(c)
	data["Package"] = pkg
	data["Items"] = items
	data["ContentType"] = contentType
	data["Page"] = page
	data["TotalItems"] = total
	return c.Render("packages/content", data, "layouts/main")
}

// HandleContentShow renders one piece of gated content and counts the view.
func HandleContentShow(c *fiber.Ctx) error {
	pkg, err := gatedPackage(c)
	if err != nil {
		return err
	}

	item, err := packageController.content.GetBySlug(c.Params("contentSlug"))
	if err != nil {
		log.Errorf("[Package] Content lookup failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Noe gikk galt")
	}
	// The gate authorizes one package, content from another one is out of
	// scope for this grant.
	if item == nil || item.PackageID != pkg.ID || !item.IsPublished() {
		return fiber.NewError(fiber.StatusNotFound, "Innholdet finnes ikke")
	}

	if err := counter.AddContentView(item.ID); err != nil {
		log.Warnf("[Package] View counter failed for content %d: %v", item.ID, err)
	}

	userID := usercontext.GetUserID(c)
	bookmarked := false
	if bm, err := packageController.content.GetBookmark(userID, item.ID); err == nil && bm != nil {
		bookmarked = true
	}

	progress, err := touchProgress(userID, item.ID)
	if err != nil {
		log.Warnf("[Package] Progress tracking failed for content %d: %v", item.ID, err)
	}

	var downloadURL string
	if item.HasAttachment() {
		token, err := security.GenerateDownloadToken(userID, item.ID, downloadTokenTTL, env.GetEnv("DOWNLOAD_TOKEN_SECRET", ""))
		if err != nil {
			log.Errorf("[Package] Failed to issue download token for content %d: %v", item.ID, err)
		} else {
			downloadURL = fmt.Sprintf("/nedlastinger/%d?token=%s", item.ID, token)
		}
	}

	data := baseViewData(c, item.Title)
	data["Flash"] = flash.Get(c)
	data["Package"] = pkg
	data["Content"] = item
	data["Bookmarked"] = bookmarked
	data["Completed"] = progress != nil && progress.IsCompleted()
	data["DownloadURL"] = downloadURL
	return c.Render("packages/content_show", data, "layouts/main")
}

// touchProgress records one visit on the (user, content) progress row,
// creating it on the first open.
func touchProgress(userID, contentID uint) (*models.UserProgress, error) {
	progress, err := packageController.content.GetProgress(userID, contentID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		progress = &models.UserProgress{UserID: userID, ContentID: contentID}
	}
	progress.Touch(time.Now())
	if err := packageController.content.SaveProgress(progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// HandleContentComplete marks a piece of gated content as read.
func HandleContentComplete(c *fiber.Ctx) error {
	pkg, err := gatedPackage(c)
	if err != nil {
		return err
	}

	item, err := packageController.content.GetBySlug(c.Params("contentSlug"))
	if err != nil {
		log.Errorf("[Package] Content lookup failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Noe gikk galt")
	}
	if item == nil || item.PackageID != pkg.ID || !item.IsPublished() {
		return fiber.NewError(fiber.StatusNotFound, "Innholdet finnes ikke")
	}

	userID := usercontext.GetUserID(c)
	progress, err := packageController.content.GetProgress(userID, item.ID)
	if err != nil {
		log.Errorf("[Package] Progress lookup failed for content %d: %v", item.ID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "Noe gikk galt")
	}
	if progress == nil {
		progress = &models.UserProgress{UserID: userID, ContentID: item.ID}
	}
	progress.Complete(time.Now())
	if err := packageController.content.SaveProgress(progress); err != nil {
		log.Errorf("[Package] Progress save failed for content %d: %v", item.ID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "Noe gikk galt")
	}

	return c.Redirect(fmt.Sprintf("/pakker/%s/innhold/%s", pkg.Slug, item.Slug))
}

// HandleBookmarkToggle creates or removes the caller's bookmark on a
// piece of gated content.
func HandleBookmarkToggle(c *fiber.Ctx) error {
	pkg, err := gatedPackage(c)
	if err != nil {
		return err
	}

	item, err := packageController.content.GetBySlug(c.Params("contentSlug"))
	if err != nil || item == nil || item.PackageID != pkg.ID {
		return fiber.NewError(fiber.StatusNotFound, "Innholdet finnes ikke")
	}

	userID := usercontext.GetUserID(c)
	existing, err := packageController.content.GetBookmark(userID, item.ID)
	if err != nil {
		log.Errorf("[Package] Bookmark lookup failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Noe gikk galt")
	}

	if existing != nil {
		if err := packageController.content.DeleteBookmark(userID, item.ID); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Noe gikk galt")
		}
		return c.JSON(fiber.Map{"bookmarked": false})
	}

	if err := packageController.content.CreateBookmark(&models.ContentBookmark{
		UserID:    userID,
		ContentID: item.ID,
	}); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Noe gikk galt")
	}
	return c.JSON(fiber.Map{"bookmarked": true})
}

// HandleDownloadFile streams an attached file after verifying the signed
// download token. The token carries user and content id, so a leaked URL
// stops working for anyone else and after the TTL.
func HandleDownloadFile(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("contentID"), 10, 32)
	if err != nil || id == 0 {
		return fiber.NewError(fiber.StatusNotFound, "Filen finnes ikke")
	}
	contentID := uint(id)

	claims, err := security.VerifyDownloadToken(c.Query("token"), env.GetEnv("DOWNLOAD_TOKEN_SECRET", ""))
	if err != nil {
		return fiber.NewError(fiber.StatusForbidden, "Nedlastingslenken er ugyldig eller utløpt")
	}
	if claims.ContentID != contentID || claims.UserID != usercontext.GetUserID(c) {
		return fiber.NewError(fiber.StatusForbidden, "Nedlastingslenken er ugyldig eller utløpt")
	}

	item, err := packageController.content.GetByID(contentID)
	if err != nil || item == nil || !item.HasAttachment() {
		return fiber.NewError(fiber.StatusNotFound, "Filen finnes ikke")
	}

	path := filepath.Join(env.GetEnv("CONTENT_FILE_DIR", "./data/content"), filepath.Clean("/"+item.FilePath))
	if _, err := os.Stat(path); err != nil {
		log.Errorf("[Package] Attachment missing on disk for content %d: %v", item.ID, err)
		return fiber.NewError(fiber.StatusNotFound, "Filen finnes ikke")
	}

	if err := counter.AddContentDownload(item.ID); err != nil {
		log.Warnf("[Package] Download counter failed for content %d: %v", item.ID, err)
	}

	return c.Download(path, filepath.Base(item.FilePath))
}

// HandleMyBookmarks lists the signed-in user's bookmarks and recently
// read content on min-side.
func HandleMyBookmarks(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	bookmarks, err := packageController.content.ListBookmarksByUser(userID)
	if err != nil {
		log.Errorf("[Package] Failed to list bookmarks for user %d: %v", userID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "Noe gikk galt")
	}

	recent, err := packageController.content.ListProgressByUser(userID, recentProgressLimit)
	if err != nil {
		log.Warnf("[Package] Failed to list progress for user %d: %v", userID, err)
		recent = nil
	}
	contentTitles := make(map[uint]string, len(recent)+len(bookmarks))
	for _, row := range recent {
		if _, ok := contentTitles[row.ContentID]; ok {
			continue
		}
		if item, err := packageController.content.GetByID(row.ContentID); err == nil && item != nil {
			contentTitles[row.ContentID] = item.Title
		}
	}
	for _, bm := range bookmarks {
		if _, ok := contentTitles[bm.ContentID]; ok {
			continue
		}
		if item, err := packageController.content.GetByID(bm.ContentID); err == nil && item != nil {
			contentTitles[bm.ContentID] = item.Title
		}
	}

	data := baseViewData(c, "Mine bokmerker")
	data["Flash"] = flash.Get(c)
	data["Bookmarks"] = bookmarks
	data["Recent"] = recent
	data["ContentTitles"] = contentTitles
	return c.Render("account/bookmarks", data, "layouts/main")
}
