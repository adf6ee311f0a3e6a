package db

import (
	"github.com/csr-ugra/petads-pipeline/internal/selector"
	"github.com/uptrace/bun"
	"time"
)

type ScrapingSourceModel struct {
	bun.BaseModel `bun:"table:scraping_sources,alias:ss"`
	Id            int64        `bun:"id,pk,autoincrement"`
	Name          string       `bun:"name,notnull"`
	BaseUrl       string       `bun:"base_url,notnull"`
	ScrapeUrl     string       `bun:"scrape_url,notnull"`
	Selectors     selector.Set `bun:"selectors"`
	RenderJs      bool         `bun:"render_js,notnull,default:false"`
	IsActive      bool         `bun:"is_active,notnull"`
	LastScrapedAt *time.Time   `bun:"last_scraped_at"`
}

type CategoryModel struct {
	bun.BaseModel `bun:"table:categories,alias:c"`
	Id            int64  `bun:"id,pk,autoincrement"`
	Name          string `bun:"name,notnull"`
	Slug          string `bun:"slug,notnull,unique"`
	Icon          string `bun:"icon"`
}

type ListingModel struct {
	bun.BaseModel `bun:"table:listings,alias:l"`
	Id            int64     `bun:"id,pk,autoincrement"`
	Title         string    `bun:"title,notnull"`
	Description   string    `bun:"description"`
	Price         *float64  `bun:"price"`
	Currency      string    `bun:"currency,notnull,default:'EUR'"`
	Location      string    `bun:"location"`
	Images        []string  `bun:"images"`
	CategoryId    *int64    `bun:"category_id"`
	Breed         *string   `bun:"breed"`
	Age           *string   `bun:"age"`
	Gender        *string   `bun:"gender"`
	SourceName    string    `bun:"source_name,notnull"`
	SourceUrl     string    `bun:"source_url,notnull,unique"`
	ScrapedAt     time.Time `bun:"scraped_at,notnull"`
	IsActive      bool      `bun:"is_active,notnull"`
}

type AffiliateNetworkModel struct {
	bun.BaseModel        `bun:"table:affiliate_networks,alias:an"`
	Id                   int64                  `bun:"id,pk,autoincrement"`
	Name                 string                 `bun:"name,notnull,unique"`
	PartnerId            string                 `bun:"partner_id,notnull"`
	CommissionRate       float64                `bun:"commission_rate,notnull,default:0"`
	UpdateFrequencyHours int                    `bun:"update_frequency_hours,notnull,default:24"`
	IsActive             bool                   `bun:"is_active,notnull"`
	Settings             map[string]interface{} `bun:"settings"`
	CreatedAt            time.Time              `bun:"created_at,notnull"`
}

type AffiliateProductModel struct {
	bun.BaseModel  `bun:"table:affiliate_products,alias:ap"`
	Id             int64      `bun:"id,pk,autoincrement"`
	NetworkId      int64      `bun:"network_id,notnull,unique:network_external"`
	ExternalId     string     `bun:"external_id,notnull,unique:network_external"`
	Title          string     `bun:"title,notnull"`
	Description    string     `bun:"description"`
	Price          float64    `bun:"price,notnull"`
	OriginalPrice  *float64   `bun:"original_price"`
	Currency       string     `bun:"currency,notnull,default:'EUR'"`
	ImageUrl       string     `bun:"image_url"`
	Category       string     `bun:"category"`
	Subcategory    string     `bun:"subcategory"`
	Brand          string     `bun:"brand"`
	Rating         float64    `bun:"rating,notnull,default:0"`
	ReviewCount    int        `bun:"review_count,notnull,default:0"`
	IsFeatured     bool       `bun:"is_featured,notnull,default:false"`
	IsActive       bool       `bun:"is_active,notnull"`
	LastPriceCheck *time.Time `bun:"last_price_check"`
	AffiliateLink  string     `bun:"affiliate_link,notnull"`
	SeoTitle       string     `bun:"seo_title"`
	SeoDescription string     `bun:"seo_description"`
	Tags           []string   `bun:"tags"`
	CreatedAt      time.Time  `bun:"created_at,notnull"`
	UpdatedAt      time.Time  `bun:"updated_at,notnull"`
}

type AffiliatePriceHistoryModel struct {
	bun.BaseModel `bun:"table:affiliate_price_history,alias:aph"`
	Id            int64     `bun:"id,pk,autoincrement"`
	ProductId     int64     `bun:"product_id,notnull"`
	Price         float64   `bun:"price,notnull"`
	OriginalPrice *float64  `bun:"original_price"`
	Availability  string    `bun:"availability,notnull"`
	RecordedAt    time.Time `bun:"recorded_at,notnull"`
}

type AffiliateContentModel struct {
	bun.BaseModel  `bun:"table:affiliate_content,alias:ac"`
	Id             int64     `bun:"id,pk,autoincrement"`
	ProductId      int64     `bun:"product_id,notnull,unique"`
	ContentType    string    `bun:"content_type,notnull"`
	Title          string    `bun:"title,notnull"`
	Slug           string    `bun:"slug,notnull,unique"`
	Body           string    `bun:"body,notnull"`
	Excerpt        string    `bun:"excerpt,notnull"`
	SeoTitle       string    `bun:"seo_title,notnull"`
	SeoDescription string    `bun:"seo_description,notnull"`
	Tags           []string  `bun:"tags"`
	IsPublished    bool      `bun:"is_published,notnull,default:false"`
	PublishAt      time.Time `bun:"publish_at,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

const (
	AutomationStatusSuccess        = "success"
	AutomationStatusPartialSuccess = "partial_success"
	AutomationStatusError          = "error"
)

type AutomationLogModel struct {
	bun.BaseModel `bun:"table:automation_logs,alias:al"`
	Id            int64                  `bun:"id,pk,autoincrement"`
	TaskType      string                 `bun:"task_type,notnull"`
	Status        string                 `bun:"status,notnull"`
	Details       map[string]interface{} `bun:"details"`
	RunAt         time.Time              `bun:"run_at,notnull"`
}

func Models() []interface{} {
	return []interface{}{
		(*ScrapingSourceModel)(nil),
		(*CategoryModel)(nil),
		(*ListingModel)(nil),
		(*AffiliateNetworkModel)(nil),
		(*AffiliateProductModel)(nil),
		(*AffiliatePriceHistoryModel)(nil),
		(*AffiliateContentModel)(nil),
		(*AutomationLogModel)(nil),
	}
}
