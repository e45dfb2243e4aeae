package factory

import (
	"testing"
	"time"

	"github.com/crawltoll/vault"
	"github.com/crawltoll/vault/vaulttest"
	"github.com/crawltoll/vault/x/wallet"
	. "github.com/smartystreets/goconvey/convey"
)

func TestProfiles(t *testing.T) {
	Convey("Given a labeled owner set", t, func() {
		owners := []*wallet.Owner{
			{Address: vaulttest.RandomAddr(t), Role: "operator", DeviceClass: "hsm"},
			{Address: vaulttest.RandomAddr(t), Role: "finance", DeviceClass: "hardware-key"},
			{Address: vaulttest.RandomAddr(t), Role: "security", DeviceClass: "hsm"},
		}

		Convey("A testnet deployment passes the testnet profile", func() {
			msg := TestnetProfile.Deployment([]byte("dev"), owners[:1])
			So(msg.Validate(), ShouldBeNil)
			So(TestnetProfile.Check(msg), ShouldBeNil)

			Convey("But not the production profile", func() {
				So(ProductionProfile.Check(msg), ShouldNotBeNil)
			})
		})

		Convey("A production deployment passes the production profile", func() {
			msg := ProductionProfile.Deployment([]byte("prod"), owners)
			So(msg.Validate(), ShouldBeNil)
			So(ProductionProfile.Check(msg), ShouldBeNil)
			So(msg.Threshold, ShouldEqual, 3)
			So(msg.Timelock, ShouldEqual, vault.AsUnixDuration(24*time.Hour))
		})

		Convey("Production rejects owners without labels", func() {
			unlabeled := []*wallet.Owner{
				{Address: vaulttest.RandomAddr(t), Role: "operator", DeviceClass: "hsm"},
				{Address: vaulttest.RandomAddr(t), Role: "finance", DeviceClass: "hsm"},
				{Address: vaulttest.RandomAddr(t)},
			}
			msg := ProductionProfile.Deployment([]byte("prod"), unlabeled)
			So(ProductionProfile.Check(msg), ShouldNotBeNil)
		})

		Convey("Production rejects a weakened threshold", func() {
			msg := ProductionProfile.Deployment([]byte("prod"), owners)
			msg.Threshold = 1
			So(ProductionProfile.Check(msg), ShouldNotBeNil)
		})
	})
}
