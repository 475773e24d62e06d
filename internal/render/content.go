package render

// FeatureStep is one entry of the feature engineering accordion
type FeatureStep struct {
	Title       string
	Description string
}

// FeatureSteps describes how the classifier builds its features
var FeatureSteps = []FeatureStep{
	{Title: "Tokenization and Vocabulary Construction", Description: "The cleaned email corpus is tokenized, and a vocabulary of unique terms is created."},
	{Title: "Term Frequency Calculation (TF)", Description: "For every term in every email, term frequency is calculated."},
	{Title: "Inverse Document Frequency Calculation (IDF)", Description: "IDF captures term rarity across all emails."},
	{Title: "TF-IDF Matrix Construction", Description: "Product of TF and IDF forms high-dimensional sparse vectors."},
	{Title: "Free-vs-Custom Domain Flag", Description: "Binary flag if sender domain is a free service."},
}

// Ethics is the ethical considerations panel
var Ethics = []string{
	"Only public, anonymized datasets used with privacy protections.",
	"All findings are for academic purposes.",
	"Tools: Python, scikit-learn, pandas, numpy, Flask, React/Expo.",
}

const (
	Title    = "Meta Sender Protect: Email Spam Detection System"
	Subtitle = "Using TF-IDF + Linear SVM with Domain Metadata"
)
