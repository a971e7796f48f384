package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"

	"github.com/nuhgnoej/weDive/routes"
	"github.com/nuhgnoej/weDive/storage"
	"github.com/nuhgnoej/weDive/utils"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	// Initialize services
	storage.InitializeDB()
	storage.InitializeRedis()

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	// Minimal middleware - compression only
	app.Use(iris.Compression)

	// JWT Verifiers
	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	// Health check endpoint
	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Get("/me", accessTokenVerifierMiddleware, routes.Me)
		user.Get("/profile", accessTokenVerifierMiddleware, routes.GetDiveProfile)
		user.Post("/profile", accessTokenVerifierMiddleware, routes.CreateOrUpdateDiveProfile)
		user.Put("/profile", accessTokenVerifierMiddleware, routes.CreateOrUpdateDiveProfile)
		user.Delete("/profile", accessTokenVerifierMiddleware, routes.DeleteDiveProfile)
		user.Get("/rooms/saved", accessTokenVerifierMiddleware, routes.GetSavedRooms)
		user.Patch("/rooms/saved", accessTokenVerifierMiddleware, routes.AlterSavedRooms)
		user.Get("/{id:uint}", accessTokenVerifierMiddleware, routes.GetUser)
	}

	rooms := app.Party("/api/rooms")
	{
		rooms.Get("/", accessTokenVerifierMiddleware, routes.ListRooms)
		rooms.Post("/", accessTokenVerifierMiddleware, routes.CreateRoom)
		rooms.Get("/my-requests", accessTokenVerifierMiddleware, routes.MyJoinRequests)
		rooms.Get("/{id:uint}", accessTokenVerifierMiddleware, routes.GetRoom)
		rooms.Delete("/{id:uint}", accessTokenVerifierMiddleware, routes.DeleteRoom)
		rooms.Get("/{id:uint}/access", accessTokenVerifierMiddleware, routes.GetRoomAccess)
		rooms.Post("/{id:uint}/join", accessTokenVerifierMiddleware, routes.RequestJoin)
		rooms.Get("/{id:uint}/applicants", accessTokenVerifierMiddleware, routes.ListApplicants)
		// Chat
		rooms.Get("/{id:uint}/messages", accessTokenVerifierMiddleware, routes.ListRoomMessages)
		rooms.Post("/{id:uint}/messages", accessTokenVerifierMiddleware, routes.SendRoomMessage)
		rooms.Post("/{id:uint}/typing", accessTokenVerifierMiddleware, routes.Typing)
		rooms.Get("/{id:uint}/typing", accessTokenVerifierMiddleware, routes.ListTyping)
	}

	participants := app.Party("/api/participants")
	{
		participants.Post("/{participantID:uint}/approve", accessTokenVerifierMiddleware, routes.Approve)
		participants.Post("/{participantID:uint}/reject", accessTokenVerifierMiddleware, routes.Reject)
	}

	posts := app.Party("/api/posts")
	{
		posts.Get("/", accessTokenVerifierMiddleware, routes.ListPosts)
		posts.Post("/", accessTokenVerifierMiddleware, routes.CreatePost)
		posts.Get("/{id:uint}", accessTokenVerifierMiddleware, routes.GetPost)
		posts.Delete("/{id:uint}", accessTokenVerifierMiddleware, routes.DeletePost)
		posts.Post("/{id:uint}/comments", accessTokenVerifierMiddleware, routes.CreateComment)
		posts.Post("/{id:uint}/like", accessTokenVerifierMiddleware, routes.LikePost)
		posts.Post("/{id:uint}/unlike", accessTokenVerifierMiddleware, routes.UnlikePost)
	}

	notifications := app.Party("/api/notifications")
	{
		notifications.Get("/", accessTokenVerifierMiddleware, routes.ListNotifications)
		notifications.Post("/{id:uint}/read", accessTokenVerifierMiddleware, routes.MarkNotificationRead)
	}

	app.Post("/api/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	addr := "0.0.0.0:" + port

	fmt.Printf("Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
