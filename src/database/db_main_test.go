package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"signaltracker/src/model"
)

func TestInitMainDBSqlite(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "file:initmain?mode=memory&cache=shared")

	require.NoError(t, InitMainDB())
	require.NotNil(t, MainDB)

	// migrations created all tables
	for _, table := range []string{"channels", "signals", "take_profit_targets", "channel_statistics"} {
		require.Truef(t, MainDB.Migrator().HasTable(table), "missing table %s", table)
	}

	// round-trip through the migrated schema
	channel := &model.Channel{ID: model.ChannelIDForName("smoke"), Name: "smoke", IsActive: true}
	require.NoError(t, MainDB.Create(channel).Error)

	var found model.Channel
	require.NoError(t, MainDB.Where("name = ?", "smoke").First(&found).Error)
	require.Equal(t, channel.ID, found.ID)
}

func TestInitMainDBUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	require.Error(t, InitMainDB())
}

func TestGetConfigDefaults(t *testing.T) {
	config := GetConfig()

	require.Equal(t, "sqlite", config.Driver)
	require.Equal(t, "signaltracker.db", config.SQLitePath)
}
