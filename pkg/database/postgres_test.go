package database

import (
	"meal_coupon/internal/pkg/config"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host: "db", User: "coupon", Password: "secret", DBName: "meal_coupon",
		Port: "5432", SSLMode: "disable", TimeZone: "Asia/Kolkata",
	}

	assert.Equal(t, "host=db user=coupon password=secret dbname=meal_coupon port=5432 sslmode=disable TimeZone=Asia/Kolkata", DSN(cfg))
	assert.Equal(t, "postgres://coupon:secret@db:5432/meal_coupon?sslmode=disable", URL(cfg))
}
