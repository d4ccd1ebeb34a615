package config_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/raihan-suryanom/brawl-master-web/internal/config"
	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.UpstreamURL, convey.ShouldEqual, "http://localhost:7239/api")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.CacheBackend, convey.ShouldEqual, config.CacheMemory)
			convey.So(cfg.RefreshSchedule, convey.ShouldEqual, "@every 5m")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the duration helpers should convert units", func() {
			convey.So(cfg.UpstreamTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.CacheTTL(), convey.ShouldEqual, 30*time.Second)
		})

		convey.Convey("Then the default refresh scope should be global", func() {
			convey.So(cfg.Scopes(), convey.ShouldResemble, []string{model.GlobalScope})
		})
	})
}

func TestConfig_Lists(t *testing.T) {
	convey.Convey("Given comma-separated list settings", t, func() {
		cfg := config.New()
		cfg.RefreshScopes = " GLOBAL, s1 ,,s2"
		cfg.CORSOrigins = "http://a.test, http://b.test"

		convey.Convey("Then blanks should be dropped and global mapped", func() {
			convey.So(cfg.Scopes(), convey.ShouldResemble, []string{model.GlobalScope, "s1", "s2"})
			convey.So(cfg.Origins(), convey.ShouldResemble, []string{"http://a.test", "http://b.test"})
		})

		convey.Convey("And an empty list should give no scopes", func() {
			cfg.RefreshScopes = ""
			convey.So(cfg.Scopes(), convey.ShouldBeEmpty)
		})
	})
}
