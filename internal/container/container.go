package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-directory/config"
	"github.com/oksasatya/user-directory/internal/infrastructure/storage"
	"github.com/oksasatya/user-directory/pkg/helpers"
	"github.com/oksasatya/user-directory/pkg/mailer"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons. Optional integrations
// stay nil when they are not configured.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	store       *storage.Store
	redisClient *redis.Client
	pictures    *helpers.GCSStore

	identity *helpers.IdentityVerifier

	mailgunClient *mailer.Mailgun
	rabbitPub     *helpers.RabbitPublisher
	esClient      *elasticsearch.Client
)

func SetConfig(c *config.Config)      { cfg = c }
func GetConfig() *config.Config       { return cfg }
func SetLogger(l *logrus.Logger)      { logger = l }
func GetLogger() *logrus.Logger       { return logger }
func SetStore(s *storage.Store)       { store = s }
func GetStore() *storage.Store        { return store }
func SetRedis(r *redis.Client)        { redisClient = r }
func GetRedis() *redis.Client         { return redisClient }
func SetPictures(s *helpers.GCSStore) { pictures = s }
func GetPictures() *helpers.GCSStore  { return pictures }

func SetIdentity(v *helpers.IdentityVerifier) { identity = v }

// GetIdentity returns the configured verifier. Without one, every token is
// rejected.
func GetIdentity() *helpers.IdentityVerifier {
	if identity != nil {
		return identity
	}
	return &helpers.IdentityVerifier{}
}

func SetMailgun(m *mailer.Mailgun)            { mailgunClient = m }
func GetMailgun() *mailer.Mailgun             { return mailgunClient }
func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }
