package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/go-playground/validator/v10"
	"github.com/sujit-baniya/flash"

	"github.com/juridiskporten/portal/app/models"
	"github.com/juridiskporten/portal/app/repository"
	"github.com/juridiskporten/portal/internal/pkg/cart"
	"github.com/juridiskporten/portal/internal/pkg/env"
	"github.com/juridiskporten/portal/internal/pkg/hcaptcha"
	"github.com/juridiskporten/portal/internal/pkg/jobqueue"
	"github.com/juridiskporten/portal/internal/pkg/mail"
	"github.com/juridiskporten/portal/internal/pkg/session"
	"github.com/juridiskporten/portal/internal/pkg/usercontext"
)

var validate = validator.New()

// AuthController wires the auth flows to their collaborators.
type AuthController struct {
	users repository.UserRepository
	carts *cart.Service
}

var authController *AuthController

// InitializeAuthController sets up the auth controller with repositories
func InitializeAuthController(carts *cart.Service) {
	authController = &AuthController{
		users: repository.GetGlobalFactory().GetUserRepository(),
		carts: carts,
	}
}

// sessionCartKey identifies the anonymous cart until login.
const sessionCartKey = "cart_session_key"

func HandleAuthLogin(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		fm := fiber.Map{
			"type": "error",
		}

		// notice: in production you should not inform the user
		// with detailed messages about login failures
		user, err := authController.users.GetByEmail(c.FormValue("email"))
		if err != nil || user == nil {
			fm["message"] = "Innlogging feilet, kontroller e-post og passord"

			return flash.WithError(c, fm).Redirect("/login")
		}

		if !user.CheckPassword(c.FormValue("password")) {
			fm["message"] = "Innlogging feilet, kontroller e-post og passord"

			return flash.WithError(c, fm).Redirect("/login")
		}

		if user.Status != models.STATUS_ACTIVE {
			fm["message"] = "Kontoen er ikke aktivert. Sjekk e-posten din for aktiveringslenken."

			return flash.WithError(c, fm).Redirect("/login")
		}

		sess, err := session.GetSessionStore().Get(c)
		if err != nil {
			fm["message"] = fmt.Sprintf("something went wrong: %s", err)

			return flash.WithError(c, fm).Redirect("/login")
		}

		// Fold the anonymous cart into the user cart before the session
		// key rotates.
		if anonKey, ok := sess.Get(sessionCartKey).(string); ok && anonKey != "" {
			if _, err := authController.carts.MergeOnLogin(user.ID, anonKey); err != nil {
				log.Warnf("[Auth] Cart merge failed for user %d: %v", user.ID, err)
			}
			sess.Delete(sessionCartKey)
		}

		sess.Set(usercontext.AuthKey, true)
		sess.Set(usercontext.KeyUserID, user.ID)
		sess.Set(usercontext.KeyUserName, user.Name)
		sess.Set(usercontext.KeyIsAdmin, user.IsAdmin())
		sess.Set(usercontext.KeyIsLawyer, user.IsLawyer())

		if err := sess.Save(); err != nil {
			fm["message"] = fmt.Sprintf("something went wrong: %s", err)

			return flash.WithError(c, fm).Redirect("/login")
		}

		now := time.Now()
		user.LastLoginAt = &now
		if err := authController.users.Update(user); err != nil {
			log.Warnf("[Auth] Failed to stamp last login for user %d: %v", user.ID, err)
		}

		fm = fiber.Map{
			"type":    "success",
			"message": "Velkommen tilbake!",
		}

		return flash.WithSuccess(c, fm).Redirect("/")
	}

	data := baseViewData(c, "Logg inn")
	data["Flash"] = flash.Get(c)
	return c.Render("auth/login", data, "layouts/main")
}

func HandleAuthLogout(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type": "error",
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		fm["message"] = "logged out (no sess)"

		return flash.WithError(c, fm).Redirect("/login")
	}

	if err := sess.Destroy(); err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/login")
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "Du er logget ut. Velkommen tilbake!",
	}

	c.Locals(usercontext.KeyFromProtected, false)

	return flash.WithSuccess(c, fm).Redirect("/login")
}

// registerForm is validated before any row is written.
type registerForm struct {
	Name     string `validate:"required,min=3,max=150"`
	Email    string `validate:"required,email,max=200"`
	Password string `validate:"required,min=8,max=72"`
	Org      string `validate:"max=200"`
}

func HandleAuthRegister(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		hcaptchaToken := c.FormValue("h-captcha-response")
		valid, err := hcaptcha.Verify(hcaptchaToken)
		if err != nil || !valid {
			errorMsg := "Captcha-validering feilet. Prøv igjen."
			if err != nil && env.IsDev() {
				errorMsg = fmt.Sprintf("Captcha validation failed: %v", err)
			}

			fm := fiber.Map{
				"type":    "error",
				"message": errorMsg,
			}
			return flash.WithError(c, fm).Redirect("/registrer")
		}

		form := registerForm{
			Name:     c.FormValue("name"),
			Email:    c.FormValue("email"),
			Password: c.FormValue("password"),
			Org:      c.FormValue("organization"),
		}
		if err := validate.Struct(form); err != nil {
			fm := fiber.Map{
				"type":    "error",
				"message": "Kontroller feltene: navn (min 3 tegn), gyldig e-post og passord på minst 8 tegn.",
			}
			return flash.WithError(c, fm).Redirect("/registrer")
		}

		user, err := models.CreateUser(form.Name, form.Email, form.Password)
		if err != nil {
			fm := fiber.Map{
				"type":    "error",
				"message": fmt.Sprintf("something went wrong: %s", err),
			}

			return flash.WithError(c, fm).Redirect("/registrer")
		}
		user.Organization = form.Org

		if err := user.GenerateActivationToken(); err != nil {
			fm := fiber.Map{
				"type":    "error",
				"message": fmt.Sprintf("something went wrong: %s", err),
			}
			return flash.WithError(c, fm).Redirect("/registrer")
		}

		if err := authController.users.Create(user); err != nil {
			fm := fiber.Map{
				"type":    "error",
				"message": "Registrering feilet. E-postadressen kan allerede være i bruk.",
			}

			return flash.WithError(c, fm).Redirect("/registrer")
		}

		subject, body := mail.ActivationMail(user)
		if _, err := jobqueue.GetManager().GetQueue().EnqueueMail(user.Email, subject, body); err != nil {
			log.Errorf("[Auth] Failed to enqueue activation mail for %s: %v", user.Email, err)
		}

		fm := fiber.Map{
			"type":    "success",
			"message": "Registrert! Sjekk e-posten din for aktiveringslenken.",
		}

		return flash.WithSuccess(c, fm).Redirect("/login")
	}

	data := baseViewData(c, "Registrer deg")
	data["Flash"] = flash.Get(c)
	data["HCaptchaSitekey"] = env.GetEnv("HCAPTCHA_SITEKEY", "")
	return c.Render("auth/register", data, "layouts/main")
}

// HandleAuthActivate flips a pending account to active when the mailed
// token matches.
func HandleAuthActivate(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		token = c.FormValue("token")
	}

	fm := fiber.Map{
		"type": "error",
	}

	if token == "" {
		fm["message"] = "Aktiveringslenken mangler token."
		return flash.WithError(c, fm).Redirect("/login")
	}

	user, err := authController.users.GetByActivationToken(token)
	if err != nil || user == nil {
		fm["message"] = "Ugyldig eller brukt aktiveringslenke."
		return flash.WithError(c, fm).Redirect("/login")
	}

	if user.ActivationSentAt != nil && time.Since(*user.ActivationSentAt) > 48*time.Hour {
		fm["message"] = "Aktiveringslenken er utløpt. Be om en ny fra administrator."
		return flash.WithError(c, fm).Redirect("/login")
	}

	user.Status = models.STATUS_ACTIVE
	user.ActivationToken = ""
	if err := authController.users.Update(user); err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)
		return flash.WithError(c, fm).Redirect("/login")
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "Kontoen er aktivert. Du kan nå logge inn.",
	}
	return flash.WithSuccess(c, fm).Redirect("/login")
}
