package db

import (
	"testing"

	"github.com/shinyyama/marketplace-backend/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			name: "host and port",
			cfg:  config.Config{DBUser: "app", DBPassword: "pw", DBHost: "127.0.0.1", DBPort: "3307", DBName: "market"},
			want: "app:pw@tcp(127.0.0.1:3307)/market?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name: "explicit tcp",
			cfg:  config.Config{DBUser: "app", DBHost: "tcp(db:3306)", DBName: "market"},
			want: "app:@tcp(db:3306)/market?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name: "socket path",
			cfg:  config.Config{DBUser: "app", DBHost: "/var/run/mysqld/mysqld.sock", DBName: "market"},
			want: "app:@unix(/var/run/mysqld/mysqld.sock)/market?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name: "cloud sql wins over host",
			cfg:  config.Config{DBUser: "app", DBHost: "127.0.0.1", InstanceConnectionName: "proj:region:inst", DBName: "market"},
			want: "app:@unix(/cloudsql/proj:region:inst)/market?charset=utf8mb4&parseTime=True&loc=UTC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildDSN(&tt.cfg))
		})
	}
}
