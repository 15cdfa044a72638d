package main

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jotagep/redditlens/app_config"
	"github.com/jotagep/redditlens/classify"
	"github.com/jotagep/redditlens/feed"
	"github.com/jotagep/redditlens/reddit"
	"github.com/jotagep/redditlens/server"
	"github.com/jotagep/redditlens/server/middlewares"
	"github.com/jotagep/redditlens/store"
	"github.com/jotagep/redditlens/utils"
	"github.com/jotagep/redditlens/utils/dotenv"
	. "github.com/jotagep/redditlens/utils/flag"
	. "github.com/jotagep/redditlens/utils/log"
)

func main() {
	ParseFlags()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	// Re-init so log fields pick up the parsed flag values.
	InitLogger()

	config := app_config.ParseAppConfig(ConfigPath)

	db, err := utils.GetDBConnection()
	if err != nil {
		Log.Fatalf("fail to connect to database: %v", err)
	}
	utils.DatabaseSetupAndMigration(db)

	svc := feed.NewService(
		store.NewDBStore(db),
		reddit.NewClient(),
		classify.NewClient(config.OPENAI_MODEL),
		feed.Config{
			TopPostsLimit:     config.TOP_POSTS_LIMIT,
			PostCacheTTL:      config.PostCacheTTL(),
			ClassificationTTL: config.ClassificationTTL(),
			ClassifyPause:     config.ClassifyPause(),
		},
	)

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()

	router.Use(cors.Default())
	router.Use(middlewares.RequestLogger())

	router.GET("/posts", server.GetPosts(svc))
	router.GET("/forums", server.ListForums(svc))
	router.POST("/forums", server.AddForum(svc))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	Log.Info("api server starts up")
	router.Run(fmt.Sprintf(":%d", config.SERVER_PORT))
}
