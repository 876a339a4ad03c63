package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/greenhorn/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Threshold, convey.ShouldEqual, config.DefaultThreshold)
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.WatchConfig, convey.ShouldBeTrue)
			convey.So(cfg.MailboxTTL(), convey.ShouldEqual, 10*time.Minute)
			convey.So(cfg.OfflineRetention(), convey.ShouldEqual, 30*24*time.Hour)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("When the threshold is negative", func() {
			cfg.Threshold = -1

			convey.Convey("Then validation fails with an invalid config error", func() {
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "threshold")
			})
		})

		convey.Convey("When the threshold is zero", func() {
			cfg.Threshold = 0

			convey.Convey("Then validation passes", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the mailbox ttl is zero", func() {
			cfg.MailboxTTLSeconds = 0

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the metrics namespace is not a valid name", func() {
			cfg.MetricsNamespace = "my-realm"

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the admin burst is zero", func() {
			cfg.AdminBurst = 0

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
