package repos

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Idempotent baseline data; safe to run every start.
	if err := seedPlans(db); err != nil {
		return nil, err
	}
	if err := seedCategories(db); err != nil {
		return nil, err
	}
	if err := seedAdmin(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Users
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('user','product_owner','admin')),
  tier TEXT NOT NULL DEFAULT 'free',
  phone TEXT NOT NULL DEFAULT '',
  preferred_language TEXT NOT NULL DEFAULT 'en' CHECK (preferred_language IN ('en','am')),
  avatar TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1,
  verification_status TEXT NOT NULL DEFAULT 'unverified'
    CHECK (verification_status IN ('unverified','pending','verified','rejected','expired')),
  verified_at TEXT NOT NULL DEFAULT '',
  verification_expires_at TEXT NOT NULL DEFAULT '',
  verification_rejection_reason TEXT NOT NULL DEFAULT '',
  quotations_used INTEGER NOT NULL DEFAULT 0,
  quotations_reset_month TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));
CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);

-- Supplier profiles
CREATE TABLE IF NOT EXISTS product_owners(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
  business_name TEXT NOT NULL,
  business_description TEXT NOT NULL DEFAULT '',
  business_address TEXT NOT NULL DEFAULT '',
  business_city TEXT NOT NULL DEFAULT '',
  business_phone TEXT NOT NULL DEFAULT '',
  business_email TEXT NOT NULL DEFAULT '',
  tier TEXT NOT NULL DEFAULT 'basic' CHECK (tier IN ('basic','standard','premium')),
  verification_status TEXT NOT NULL DEFAULT 'unverified'
    CHECK (verification_status IN ('unverified','pending','verified','rejected','expired')),
  verified_at TEXT NOT NULL DEFAULT '',
  verification_expires_at TEXT NOT NULL DEFAULT '',
  products_count INTEGER NOT NULL DEFAULT 0,
  products_limit INTEGER NOT NULL DEFAULT 1,
  delivery_available INTEGER NOT NULL DEFAULT 0,
  average_rating REAL NOT NULL DEFAULT 0,
  total_reviews INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT NOT NULL DEFAULT ''
);

-- Categories (tree: parent_id empty for roots)
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  parent_id TEXT NOT NULL DEFAULT '',
  slug TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  name_amharic TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  description_amharic TEXT NOT NULL DEFAULT '',
  icon TEXT NOT NULL DEFAULT '',
  images_json TEXT NOT NULL DEFAULT '[]',
  sort_order INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  product_count INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_categories_parent ON categories(parent_id);

-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL REFERENCES product_owners(id) ON DELETE CASCADE,
  category_id TEXT NOT NULL DEFAULT '',
  subcategory_id TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL,
  name_amharic TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  brand TEXT NOT NULL DEFAULT '',
  model TEXT NOT NULL DEFAULT '',
  primary_image TEXT NOT NULL DEFAULT '',
  images_json TEXT NOT NULL DEFAULT '[]',
  videos_json TEXT NOT NULL DEFAULT '[]',
  specs_json TEXT NOT NULL DEFAULT '{}',
  price NUMERIC NOT NULL DEFAULT 0 CHECK (price >= 0),
  price_negotiable INTEGER NOT NULL DEFAULT 1,
  quotation_available INTEGER NOT NULL DEFAULT 1,
  min_order_quantity INTEGER NOT NULL DEFAULT 1,
  unit TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  delivery_available INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'under_review'
    CHECK (status IN ('draft','under_review','active','out_of_stock','inactive','rejected')),
  rejection_reason TEXT NOT NULL DEFAULT '',
  admin_notes TEXT NOT NULL DEFAULT '',
  is_subscription_hidden INTEGER NOT NULL DEFAULT 0,
  average_rating REAL NOT NULL DEFAULT 0,
  total_reviews INTEGER NOT NULL DEFAULT 0,
  view_count INTEGER NOT NULL DEFAULT 0,
  quotation_requests_count INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_products_owner ON products(owner_id);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_status ON products(status);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

-- Reviews (one per product+user)
CREATE TABLE IF NOT EXISTS reviews(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
  comment TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(product_id, user_id)
);

-- Favorites
CREATE TABLE IF NOT EXISTS favorites(
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (user_id, product_id)
);

-- Quotations
CREATE TABLE IF NOT EXISTS quotations(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  message TEXT NOT NULL DEFAULT '',
  delivery_location TEXT NOT NULL DEFAULT '',
  request_document TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending'
    CHECK (status IN ('pending','responded','accepted','rejected')),
  response TEXT NOT NULL DEFAULT '',
  price_quote NUMERIC NOT NULL DEFAULT 0,
  response_document TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_quotations_user ON quotations(user_id);
CREATE INDEX IF NOT EXISTS idx_quotations_product ON quotations(product_id);

-- Messages
CREATE TABLE IF NOT EXISTS messages(
  id TEXT PRIMARY KEY,
  sender_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  receiver_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL DEFAULT '',
  content TEXT NOT NULL,
  is_read INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id);
CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver_id);

-- Verification requests
CREATE TABLE IF NOT EXISTS verification_requests(
  id TEXT PRIMARY KEY,
  subject_type TEXT NOT NULL CHECK (subject_type IN ('user','product_owner')),
  subject_id TEXT NOT NULL,
  documents_json TEXT NOT NULL DEFAULT '{}',
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','approved','rejected')),
  reviewed_by TEXT NOT NULL DEFAULT '',
  review_notes TEXT NOT NULL DEFAULT '',
  approved_at TEXT NOT NULL DEFAULT '',
  expires_at TEXT NOT NULL DEFAULT '',
  validity_days INTEGER NOT NULL DEFAULT 365,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_verifications_subject ON verification_requests(subject_type, subject_id);
CREATE INDEX IF NOT EXISTS idx_verifications_status ON verification_requests(status);

-- Subscription plans
CREATE TABLE IF NOT EXISTS subscription_plans(
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  role TEXT NOT NULL CHECK (role IN ('user','product_owner')),
  tier TEXT NOT NULL,
  display_name TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'ETB',
  duration_days INTEGER NOT NULL DEFAULT 30,
  product_limit INTEGER NOT NULL DEFAULT -1,
  features_json TEXT NOT NULL DEFAULT '[]',
  is_active INTEGER NOT NULL DEFAULT 1
);

-- Subscriptions
CREATE TABLE IF NOT EXISTS subscriptions(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  plan_code TEXT NOT NULL,
  tier TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'ETB',
  start_date TEXT NOT NULL DEFAULT '',
  end_date TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending'
    CHECK (status IN ('pending','active','expired','cancelled')),
  reminded_at TEXT NOT NULL DEFAULT '',
  payment_reference TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_subscriptions_user ON subscriptions(user_id);
CREATE INDEX IF NOT EXISTS idx_subscriptions_status ON subscriptions(status);

-- Payment transactions
CREATE TABLE IF NOT EXISTS payment_transactions(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  subscription_id TEXT NOT NULL DEFAULT '',
  plan_code TEXT NOT NULL DEFAULT '',
  tx_ref TEXT NOT NULL UNIQUE,
  amount NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'ETB',
  checkout_url TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'initiated'
    CHECK (status IN ('initiated','successful','failed')),
  initiated_at TEXT DEFAULT CURRENT_TIMESTAMP,
  completed_at TEXT NOT NULL DEFAULT ''
);

-- Notifications
CREATE TABLE IF NOT EXISTS notifications(
  id TEXT PRIMARY KEY,
  recipient_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  notification_type TEXT NOT NULL,
  is_read INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, is_read);

-- Revoked auth tokens (logout)
CREATE TABLE IF NOT EXISTS revoked_tokens(
  jti TEXT PRIMARY KEY,
  expires_at TEXT NOT NULL
);
`
	_, err := db.Exec(schema)
	return err
}

type planSeed struct {
	Code, Role, Tier, DisplayName string
	Amount                        float64
	ProductLimit                  int
	Features                      []string
}

var defaultPlans = []planSeed{
	{"free_user", "user", "free", "Free", 0, -1,
		[]string{"Browse products", "View supplier profiles"}},
	{"standard_user", "user", "standard", "Standard Verified", 50, -1,
		[]string{"All Free features", "10 quotations/month", "Verified badge", "Priority support"}},
	{"premium_user", "user", "premium", "Premium Verified", 200, -1,
		[]string{"All Standard features", "Unlimited quotations", "Direct messaging", "Premium support"}},
	{"basic_owner", "product_owner", "basic", "Free Trial", 0, 1,
		[]string{"1 product listing", "Receive quotation requests"}},
	{"standard_owner", "product_owner", "standard", "Standard Supplier", 200, 10,
		[]string{"10 product listings", "Advanced analytics", "Receive messages", "Priority support"}},
	{"premium_owner", "product_owner", "premium", "Premium Supplier", 500, -1,
		[]string{"Unlimited products", "Premium analytics", "Receive messages", "Featured listings", "24/7 support"}},
}

func seedPlans(db *sqlx.DB) error {
	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, p := range defaultPlans {
		features, _ := json.Marshal(p.Features)
		if _, err := tx.Exec(`
			INSERT INTO subscription_plans(id,code,role,tier,display_name,amount,currency,duration_days,product_limit,features_json)
			VALUES(?,?,?,?,?,?,'ETB',30,?,?)
			ON CONFLICT(code) DO NOTHING
		`, uuid.NewString(), p.Code, p.Role, p.Tier, p.DisplayName, p.Amount, p.ProductLimit, string(features)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func seedCategories(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting baseline construction categories")

	type cat struct{ Slug, Name, NameAm, Icon string }
	roots := []cat{
		{"cement-concrete", "Cement & Concrete", "ሲሚንቶ", "cement"},
		{"steel-rebar", "Steel & Rebar", "ብረት", "steel"},
		{"timber-wood", "Timber & Wood", "እንጨት", "timber"},
		{"finishing", "Finishing Materials", "ማጠናቀቂያ", "paint"},
		{"electrical", "Electrical & Plumbing", "ኤሌክትሪክ", "electrical"},
		{"machinery", "Machinery & Equipment", "ማሽነሪ", "machinery"},
	}
	children := map[string][]cat{
		"cement-concrete": {{"cement-opc", "OPC Cement", "", ""}, {"concrete-blocks", "Concrete Blocks", "", ""}},
		"steel-rebar":     {{"rebar", "Reinforcement Bar", "", ""}, {"structural-steel", "Structural Steel", "", ""}},
		"timber-wood":     {{"plywood", "Plywood", "", ""}, {"lumber", "Lumber", "", ""}},
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	order := 0
	for _, r := range roots {
		rootID := uuid.NewString()
		if _, err := tx.Exec(`
			INSERT INTO categories(id,parent_id,slug,name,name_amharic,icon,sort_order)
			VALUES(?,?,?,?,?,?,?)
		`, rootID, "", r.Slug, r.Name, r.NameAm, r.Icon, order); err != nil {
			return err
		}
		order++
		for i, ch := range children[r.Slug] {
			if _, err := tx.Exec(`
				INSERT INTO categories(id,parent_id,slug,name,sort_order)
				VALUES(?,?,?,?,?)
			`, uuid.NewString(), rootID, ch.Slug, ch.Name, i); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// seedAdmin ensures one admin account exists (idempotent).
func seedAdmin(db *sqlx.DB) error {
	h, err := bcrypt.GenerateFromPassword([]byte("ChangeMe1!"), 12)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO users(id,email,name,password_hash,role,tier,verification_status)
		VALUES(?,?,?,?,'admin','premium','verified')
		ON CONFLICT(email) DO NOTHING
	`, uuid.NewString(), "admin@conmart.local", "Admin", string(h))
	return err
}
