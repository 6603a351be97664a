package scraper

import "github.com/maltedev/brain-scraper/internal/page"

// Product page template of brain.com.ua.
var (
	titleLocator         = page.CSS("h1[class='main-title']")
	regularPriceLocator  = page.CSS("div[class='price-wrapper'] span")
	discountPriceLocator = page.CSS("span[class='red-price']")
	productCodeLocator   = page.CSS("span[class='br-pr-code-val']")
	reviewCountLocator   = page.CSS("a.reviews-count span")

	// SpecificationsControl expands the full characteristics list.
	SpecificationsControl = page.CSS("div#br-pr-7 button[class='br-prs-button']")

	photoLocator        = page.CSS("img[class='br-main-img']")
	specCategoryLocator = page.CSS("div[class='br-pr-chr-item']")
)

// Labels of the attribute block, in the page's display language.
const (
	labelVendor           = "Виробник"
	labelColor            = "Колір"
	labelMemoryVolume     = "Вбудована пам'ять"
	labelSeries           = "Модель"
	labelScreenDiagonal   = "Діагональ екрану"
	labelScreenResolution = "Роздільна здатність екрану"
)

const photoSourceAttr = "src"
