package handler

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// Routes collects everything Register mounts. Nil limiters are skipped.
type Routes struct {
	Auth          fiber.Handler
	UploadLimit   fiber.Handler
	ImageLimit    fiber.Handler
	AudioLimit    fiber.Handler
	DocumentLimit fiber.Handler

	Documents *DocumentHandler
	Images    *ImageHandler
	Audio     *AudioHandler
	Downloads *DownloadHandler

	// Socket serves /ws/:socketId; the handle is the path parameter.
	Socket func(c *websocket.Conn, handle string)

	// Services reports which remote services are configured.
	Services func() map[string]bool
}

func chain(hs ...fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

// Register mounts the HTTP and websocket routes on app.
func Register(app *fiber.App, r Routes) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		services := map[string]bool{}
		if r.Services != nil {
			services = r.Services()
		}
		return c.JSON(fiber.Map{
			"status":   "ok",
			"services": services,
		})
	})

	api := app.Group("/api", chain(r.Auth)...)

	translate := api.Group("/translate")
	translate.Post("/document", append(chain(r.DocumentLimit, r.UploadLimit), r.Documents.Translate)...)
	translate.Get("/status/:jobId", r.Documents.Status)
	translate.Post("/image", append(chain(r.ImageLimit, r.UploadLimit), r.Images.Translate)...)
	translate.Post("/audio", append(chain(r.AudioLimit, r.UploadLimit), r.Audio.Translate)...)

	api.Get("/download/:fileName", r.Downloads.Download)

	if r.Socket == nil {
		return
	}
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/:socketId", websocket.New(func(c *websocket.Conn) {
		r.Socket(c, c.Params("socketId"))
	}))
}
