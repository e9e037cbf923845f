package mkm

import "fmt"

// Payload is a request body the marketplace accepts. The set of
// implementations is closed; each one serializes under the <request> root in
// XML mode and as a plain object in JSON mode.
type Payload interface {
	Validate() error
	payload()
}

// Message is the body of POST account/messages/{idOtherUser}.
type Message struct {
	Message string `xml:"message" json:"message"`
}

func (Message) payload() {}

func (m Message) Validate() error {
	if m.Message == "" {
		return invalid("message", "message", "is required")
	}
	return nil
}

type OrderActionType string

const (
	OrderSend                OrderActionType = "send"
	OrderConfirmReception    OrderActionType = "confirmReception"
	OrderCancel              OrderActionType = "cancel"
	OrderRequestCancellation OrderActionType = "requestCancellation"
	OrderAcceptCancellation  OrderActionType = "acceptCancellation"
)

// OrderAction is the body of PUT order/{idOrder}.
type OrderAction struct {
	Action OrderActionType `xml:"action" json:"action"`
	// Reason is required when requesting a cancellation.
	Reason string `xml:"reason,omitempty" json:"reason,omitempty"`
	// RelistItems only applies to cancellation requests and acceptances.
	RelistItems *bool `xml:"relistItems,omitempty" json:"relistItems,omitempty"`
}

func (OrderAction) payload() {}

func (o OrderAction) Validate() error {
	switch o.Action {
	case OrderSend, OrderConfirmReception, OrderCancel:
		if o.Reason != "" || o.RelistItems != nil {
			return invalid("order action", "reason/relistItems", fmt.Sprintf("not accepted for %q", o.Action))
		}
	case OrderRequestCancellation:
		if o.Reason == "" {
			return invalid("order action", "reason", "is required to request a cancellation")
		}
	case OrderAcceptCancellation:
		if o.Reason != "" {
			return invalid("order action", "reason", "not accepted when accepting a cancellation")
		}
	default:
		return invalid("order action", "action", fmt.Sprintf("unknown value %q", o.Action))
	}
	return nil
}

// TrackingNumber is the body of PUT order/{idOrder}/tracking.
type TrackingNumber struct {
	TrackingNumber string `xml:"trackingNumber" json:"trackingNumber"`
}

func (TrackingNumber) payload() {}

func (t TrackingNumber) Validate() error {
	if t.TrackingNumber == "" {
		return invalid("tracking number", "trackingNumber", "is required")
	}
	return nil
}

// Grade values used by evaluations. GradeNA means "not applicable".
const (
	GradeVeryGood = 1
	GradeGood     = 2
	GradeNeutral  = 3
	GradeBad      = 4
	GradeNA       = 10
)

var complaints = map[string]bool{
	"badCommunication":   true,
	"incompleteShipment": true,
	"notFoil":            true,
	"rudeSeller":         true,
	"shipDamage":         true,
	"unorderedShipment":  true,
	"wrongEd":            true,
	"wrongLang":          true,
}

// Evaluation is the body of POST order/{idOrder}/evaluation. Zero grades
// other than EvaluationGrade are omitted.
type Evaluation struct {
	EvaluationGrade int      `xml:"evaluationGrade" json:"evaluationGrade"`
	ItemDescription int      `xml:"itemDescription,omitempty" json:"itemDescription,omitempty"`
	Packaging       int      `xml:"packaging,omitempty" json:"packaging,omitempty"`
	Speed           int      `xml:"speed,omitempty" json:"speed,omitempty"`
	Comment         string   `xml:"comment,omitempty" json:"comment,omitempty"`
	Complaint       []string `xml:"complaint,omitempty" json:"complaint,omitempty"`
}

func (Evaluation) payload() {}

func (e Evaluation) Validate() error {
	if !validGrade(e.EvaluationGrade) {
		return invalid("evaluation", "evaluationGrade", fmt.Sprintf("invalid grade %d", e.EvaluationGrade))
	}
	for field, grade := range map[string]int{
		"itemDescription": e.ItemDescription,
		"packaging":       e.Packaging,
		"speed":           e.Speed,
	} {
		if grade != 0 && !validGrade(grade) {
			return invalid("evaluation", field, fmt.Sprintf("invalid grade %d", grade))
		}
	}
	for _, c := range e.Complaint {
		if !complaints[c] {
			return invalid("evaluation", "complaint", fmt.Sprintf("unknown value %q", c))
		}
	}
	return nil
}

func validGrade(g int) bool {
	switch g {
	case GradeVeryGood, GradeGood, GradeNeutral, GradeBad, GradeNA:
		return true
	}
	return false
}

// StockArticle describes one stock entry. New entries name a product;
// changes and deletions name an article. Nil flags are left out so that
// an update only touches what it sets.
type StockArticle struct {
	IDArticle  int     `xml:"idArticle,omitempty" json:"idArticle,omitempty"`
	IDProduct  int     `xml:"idProduct,omitempty" json:"idProduct,omitempty"`
	IDLanguage int     `xml:"idLanguage,omitempty" json:"idLanguage,omitempty"`
	Comments   string  `xml:"comments,omitempty" json:"comments,omitempty"`
	Count      int     `xml:"count,omitempty" json:"count,omitempty"`
	Price      float64 `xml:"price,omitempty" json:"price,omitempty"`
	Condition  string  `xml:"condition,omitempty" json:"condition,omitempty"`
	IsFoil     *bool   `xml:"isFoil,omitempty" json:"isFoil,omitempty"`
	IsSigned   *bool   `xml:"isSigned,omitempty" json:"isSigned,omitempty"`
	IsAltered  *bool   `xml:"isAltered,omitempty" json:"isAltered,omitempty"`
	IsPlayset  *bool   `xml:"isPlayset,omitempty" json:"isPlayset,omitempty"`
}

// StockArticles is the body of the stock endpoints (POST, PUT and DELETE
// stock, PUT stock/increase and stock/decrease).
type StockArticles struct {
	Article []StockArticle `xml:"article" json:"article"`
}

func (StockArticles) payload() {}

var conditions = map[string]bool{"MT": true, "NM": true, "EX": true, "GD": true, "LP": true, "PL": true, "PO": true}

func (s StockArticles) Validate() error {
	if len(s.Article) == 0 {
		return invalid("stock", "article", "at least one article is required")
	}
	for i, a := range s.Article {
		field := fmt.Sprintf("article[%d]", i)
		if a.IDArticle == 0 && a.IDProduct == 0 {
			return invalid("stock", field, "needs idArticle or idProduct")
		}
		if a.Count < 0 {
			return invalid("stock", field+".count", "must not be negative")
		}
		if a.Price < 0 {
			return invalid("stock", field+".price", "must not be negative")
		}
		if a.Condition != "" && !conditions[a.Condition] {
			return invalid("stock", field+".condition", fmt.Sprintf("unknown value %q", a.Condition))
		}
	}
	return nil
}

type CartAction string

const (
	CartAdd    CartAction = "add"
	CartRemove CartAction = "remove"
)

type CartArticle struct {
	IDArticle int `xml:"idArticle" json:"idArticle"`
	Amount    int `xml:"amount" json:"amount"`
}

// CartUpdate is the body of PUT shoppingcart. The marketplace cannot add and
// remove in one request, so a single action applies to every article.
type CartUpdate struct {
	Action  CartAction    `xml:"action" json:"action"`
	Article []CartArticle `xml:"article" json:"article"`
}

func (CartUpdate) payload() {}

// NewCartUpdate builds an update from signed amounts: positive amounts add,
// negative amounts remove. Mixing signs is an error.
func NewCartUpdate(articles ...CartArticle) (CartUpdate, error) {
	if len(articles) == 0 {
		return CartUpdate{}, invalid("cart update", "article", "at least one article is required")
	}

	sign := 0
	for i, a := range articles {
		if a.Amount == 0 {
			return CartUpdate{}, invalid("cart update", fmt.Sprintf("article[%d].amount", i), "must not be zero")
		}
		s := 1
		if a.Amount < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return CartUpdate{}, invalid("cart update", "article", "cannot add and remove in one request")
		}
	}

	update := CartUpdate{Action: CartAdd, Article: make([]CartArticle, len(articles))}
	if sign < 0 {
		update.Action = CartRemove
	}
	for i, a := range articles {
		update.Article[i] = CartArticle{IDArticle: a.IDArticle, Amount: a.Amount * sign}
	}
	return update, nil
}

func (c CartUpdate) Validate() error {
	if c.Action != CartAdd && c.Action != CartRemove {
		return invalid("cart update", "action", fmt.Sprintf("unknown value %q", c.Action))
	}
	if len(c.Article) == 0 {
		return invalid("cart update", "article", "at least one article is required")
	}
	for i, a := range c.Article {
		if a.IDArticle == 0 {
			return invalid("cart update", fmt.Sprintf("article[%d].idArticle", i), "is required")
		}
		if a.Amount <= 0 {
			return invalid("cart update", fmt.Sprintf("article[%d].amount", i), "must be positive")
		}
	}
	return nil
}

// ShippingAddress is the body of PUT shoppingcart/shippingaddress.
type ShippingAddress struct {
	Name    string `xml:"name" json:"name"`
	Extra   string `xml:"extra,omitempty" json:"extra,omitempty"`
	Street  string `xml:"street" json:"street"`
	Zip     string `xml:"zip" json:"zip"`
	City    string `xml:"city" json:"city"`
	Country string `xml:"country" json:"country"`
}

func (ShippingAddress) payload() {}

func (a ShippingAddress) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"name", a.Name},
		{"street", a.Street},
		{"zip", a.Zip},
		{"city", a.City},
		{"country", a.Country},
	} {
		if f.value == "" {
			return invalid("shipping address", f.name, "is required")
		}
	}
	return nil
}

// ShippingMethod is the body of PUT shoppingcart/shippingmethod/{idReservation}.
type ShippingMethod struct {
	IDShippingMethod int `xml:"idShippingMethod" json:"idShippingMethod"`
}

func (ShippingMethod) payload() {}

func (s ShippingMethod) Validate() error {
	if s.IDShippingMethod <= 0 {
		return invalid("shipping method", "idShippingMethod", "is required")
	}
	return nil
}

// WantsListCreate is the body of POST wantslist.
type WantsListCreate struct {
	Name   string `xml:"name" json:"name"`
	IDGame int    `xml:"idGame" json:"idGame"`
}

func (WantsListCreate) payload() {}

func (w WantsListCreate) Validate() error {
	if w.Name == "" {
		return invalid("wants list", "name", "is required")
	}
	if w.IDGame <= 0 {
		return invalid("wants list", "idGame", "is required")
	}
	return nil
}

type WantsListAction string

const (
	WantsEditList   WantsListAction = "editWantslist"
	WantsAddItem    WantsListAction = "addItem"
	WantsEditItem   WantsListAction = "editItem"
	WantsDeleteItem WantsListAction = "deleteItem"
)

// Want is one entry of a wants list. Additions name a product or a
// metaproduct; edits and deletions name the want.
type Want struct {
	IDWant        string  `xml:"idWant,omitempty" json:"idWant,omitempty"`
	IDProduct     int     `xml:"idProduct,omitempty" json:"idProduct,omitempty"`
	IDMetaproduct int     `xml:"idMetaproduct,omitempty" json:"idMetaproduct,omitempty"`
	Count         int     `xml:"count,omitempty" json:"count,omitempty"`
	WishPrice     float64 `xml:"wishPrice,omitempty" json:"wishPrice,omitempty"`
	MinCondition  string  `xml:"minCondition,omitempty" json:"minCondition,omitempty"`
	IDLanguage    []int   `xml:"idLanguage,omitempty" json:"idLanguage,omitempty"`
	MailAlert     bool    `xml:"mailAlert,omitempty" json:"mailAlert,omitempty"`
}

// WantsListModify is the body of PUT wantslist/{idWantsList}.
type WantsListModify struct {
	Action      WantsListAction `xml:"action" json:"action"`
	Name        string          `xml:"name,omitempty" json:"name,omitempty"`
	Product     []Want          `xml:"product,omitempty" json:"product,omitempty"`
	Metaproduct []Want          `xml:"metaproduct,omitempty" json:"metaproduct,omitempty"`
	Want        []Want          `xml:"want,omitempty" json:"want,omitempty"`
}

func (WantsListModify) payload() {}

func (w WantsListModify) Validate() error {
	const name = "wants list change"
	switch w.Action {
	case WantsEditList:
		if w.Name == "" {
			return invalid(name, "name", "is required to rename a list")
		}
	case WantsAddItem:
		if len(w.Product)+len(w.Metaproduct) == 0 {
			return invalid(name, "product/metaproduct", "at least one item is required")
		}
		for i, p := range w.Product {
			if p.IDProduct == 0 {
				return invalid(name, fmt.Sprintf("product[%d].idProduct", i), "is required")
			}
		}
		for i, m := range w.Metaproduct {
			if m.IDMetaproduct == 0 {
				return invalid(name, fmt.Sprintf("metaproduct[%d].idMetaproduct", i), "is required")
			}
		}
	case WantsEditItem, WantsDeleteItem:
		if len(w.Want) == 0 {
			return invalid(name, "want", "at least one want is required")
		}
		for i, want := range w.Want {
			if want.IDWant == "" {
				return invalid(name, fmt.Sprintf("want[%d].idWant", i), "is required")
			}
		}
	default:
		return invalid(name, "action", fmt.Sprintf("unknown value %q", w.Action))
	}
	return w.checkConditions()
}

func (w WantsListModify) checkConditions() error {
	for _, group := range [][]Want{w.Product, w.Metaproduct, w.Want} {
		for _, want := range group {
			if want.MinCondition != "" && !conditions[want.MinCondition] {
				return invalid("wants list change", "minCondition", fmt.Sprintf("unknown value %q", want.MinCondition))
			}
		}
	}
	return nil
}
