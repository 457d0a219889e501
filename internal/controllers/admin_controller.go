package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"camion_tracker/internal/config"
	"camion_tracker/internal/models"
	"camion_tracker/internal/reports"
)

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func newPagination(page, limit int, total int64) Pagination {
	return Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: (total + int64(limit) - 1) / int64(limit),
	}
}

type pageQuery struct {
	Page  int `form:"page,default=1" binding:"min=1"`
	Limit int `form:"limit,default=50" binding:"min=1,max=500"`
}

func (q pageQuery) offset() int {
	return (q.Page - 1) * q.Limit
}

type adminTrucksQuery struct {
	pageQuery
	Date   string `form:"date" binding:"omitempty,datetime=2006-01-02"`
	From   string `form:"dateDebut" binding:"omitempty,datetime=2006-01-02"`
	To     string `form:"dateFin" binding:"omitempty,datetime=2006-01-02"`
	Status string `form:"statut" binding:"omitempty,statut"`
	Search string `form:"search"`
}

// GlobalStats is the admin dashboard overview.
func GlobalStats(c *gin.Context) {
	stats, err := reports.GlobalStats(config.DB, now())
	if err != nil {
		serverError(c, "GlobalStats: aggregation failed", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListTrucksAdmin pages through trucks with the admin filters, latest arrival first.
func ListTrucksAdmin(c *gin.Context) {
	var q adminTrucksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Paramètres de filtre invalides", err)
		return
	}
	scope := reports.Filter{
		Date:   q.Date,
		From:   q.From,
		To:     q.To,
		Status: models.TruckStatus(q.Status),
		Search: q.Search,
	}.Scope()

	var total int64
	if err := config.DB.Scopes(scope).Count(&total).Error; err != nil {
		serverError(c, "ListTrucksAdmin: count failed", err)
		return
	}
	trucks := []models.Truck{}
	if err := config.DB.Scopes(scope).
		Order("arrived_at DESC, id DESC").
		Offset(q.offset()).Limit(q.Limit).
		Find(&trucks).Error; err != nil {
		serverError(c, "ListTrucksAdmin: query failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"camions":    trucks,
		"pagination": newPagination(q.Page, q.Limit, total),
	})
}

type paymentsQuery struct {
	pageQuery
	From   string `form:"dateDebut" binding:"omitempty,datetime=2006-01-02"`
	To     string `form:"dateFin" binding:"omitempty,datetime=2006-01-02"`
	Search string `form:"search"`
}

// Payments lists settled exits with their totals and monthly breakdown.
func Payments(c *gin.Context) {
	var q paymentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Paramètres de filtre invalides", err)
		return
	}
	f := reports.Filter{From: q.From, To: q.To, Search: q.Search, PaidOnly: true}

	var total int64
	if err := config.DB.Scopes(f.Scope()).Count(&total).Error; err != nil {
		serverError(c, "Payments: count failed", err)
		return
	}
	trucks := []models.Truck{}
	if err := config.DB.Scopes(f.Scope()).
		Order("departed_at DESC, id DESC").
		Offset(q.offset()).Limit(q.Limit).
		Find(&trucks).Error; err != nil {
		serverError(c, "Payments: query failed", err)
		return
	}
	stats, err := reports.Payments(config.DB, f)
	if err != nil {
		serverError(c, "Payments: aggregation failed", err)
		return
	}
	monthly, err := reports.PaymentsByMonth(config.DB, f, 12)
	if err != nil {
		serverError(c, "Payments: monthly breakdown failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"paiements":            trucks,
		"stats":                stats,
		"repartitionMensuelle": monthly,
		"pagination":           newPagination(q.Page, q.Limit, total),
	})
}

type reportDate struct {
	Date string `uri:"date" binding:"required,datetime=2006-01-02"`
}

// DailyReport details one day for the admin report page.
func DailyReport(c *gin.Context) {
	var p reportDate
	if err := c.ShouldBindUri(&p); err != nil {
		badRequest(c, "Date invalide, format attendu AAAA-MM-JJ", err)
		return
	}
	report, err := reports.Daily(config.DB, p.Date, config.App.Location)
	if err != nil {
		serverError(c, "DailyReport: aggregation failed", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type detailedQuery struct {
	Period string `form:"periode" binding:"omitempty,periode"`
	Date   string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

func DetailedStats(c *gin.Context) {
	var q detailedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Période invalide (jour, semaine, mois, annee)", err)
		return
	}
	if q.Period == "" {
		q.Period = "jour"
	}
	if q.Date == "" {
		q.Date = today()
	}
	f, err := reports.PeriodFilter(q.Period, q.Date, now())
	if err != nil {
		badRequest(c, "Période invalide (jour, semaine, mois, annee)", err)
		return
	}
	stats, err := reports.DetailedStats(config.DB, f)
	if err != nil {
		serverError(c, "DetailedStats: aggregation failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"periode": q.Period,
		"date":    q.Date,
		"stats":   stats,
	})
}
