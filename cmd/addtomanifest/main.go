// Function addtomanifest starts S3 and Secrets Manager sessions and hands over to package addtomanifest.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"go.uber.org/zap"

	"github.com/UKHomeOffice/addtomanifest/internal/config"
	"github.com/UKHomeOffice/addtomanifest/internal/logging"
	"github.com/UKHomeOffice/addtomanifest/pkg/addtomanifest"
	"github.com/UKHomeOffice/addtomanifest/pkg/notifier"
	"github.com/UKHomeOffice/addtomanifest/pkg/secrets"
	"github.com/UKHomeOffice/addtomanifest/pkg/sourceconfig"
)

var h *addtomanifest.Handler
var logger *zap.Logger

func init() {

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	logger, err = logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to make logger: %v", err)
	}

	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	awsCfg := cfg.AWSConfig()

	ldr := sourceconfig.NewLoader(s3.New(sess, awsCfg), cfg.ConfigBucket, cfg.ConfigKey)
	cp := secrets.NewProvider(secretsmanager.New(sess, awsCfg), cfg.SecretID)
	ntf := notifier.New(&http.Client{Timeout: cfg.NotifyTimeout}, logger)

	h = addtomanifest.NewHandler(ldr, cp, ntf, cfg.FileURLPrefix, logger)
}

func handler(ctx context.Context, raw json.RawMessage) error {
	defer logger.Sync()

	_, err := h.Handle(ctx, raw)
	return err
}

func main() {
	lambda.Start(handler)
}
