package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"camion_tracker/internal/config"
	"camion_tracker/internal/reports"
)

type dayQuery struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// DailyStats returns the statistics of one day, today by default.
func DailyStats(c *gin.Context) {
	var q dayQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Date invalide, format attendu AAAA-MM-JJ", err)
		return
	}
	if q.Date == "" {
		q.Date = today()
	}
	stats, err := reports.Day(config.DB, q.Date)
	if err != nil {
		serverError(c, "DailyStats: aggregation failed", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type monthQuery struct {
	Year  int `form:"annee" binding:"omitempty,min=2000,max=2100"`
	Month int `form:"mois" binding:"omitempty,min=1,max=12"`
}

// MonthlyStats returns the statistics of a month, the current one by default.
func MonthlyStats(c *gin.Context) {
	var q monthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Année ou mois invalide", err)
		return
	}
	t := now()
	if q.Year == 0 {
		q.Year = t.Year()
	}
	if q.Month == 0 {
		q.Month = int(t.Month())
	}
	stats, err := reports.Month(config.DB, q.Year, q.Month)
	if err != nil {
		serverError(c, "MonthlyStats: aggregation failed", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type yearQuery struct {
	Year int `form:"annee" binding:"omitempty,min=2000,max=2100"`
}

func YearlyStats(c *gin.Context) {
	var q yearQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Année invalide", err)
		return
	}
	if q.Year == 0 {
		q.Year = now().Year()
	}
	stats, err := reports.Year(config.DB, q.Year)
	if err != nil {
		serverError(c, "YearlyStats: aggregation failed", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CompleteStats feeds the statistics page in one call.
func CompleteStats(c *gin.Context) {
	overview, err := reports.Complete(config.DB, now())
	if err != nil {
		serverError(c, "CompleteStats: aggregation failed", err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
