package classify

import "regexp"

type BreedRule struct {
	Phrase string
	Name   string
}

// Breeds is matched first-match-wins in table order, so more specific phrases
// must stay above the phrases they contain ("french bulldog" before "bulldog").
var Breeds = []BreedRule{
	{Phrase: "golden retriever", Name: "Golden Retriever"},
	{Phrase: "labrador", Name: "Labrador Retriever"},
	{Phrase: "german shepherd", Name: "German Shepherd"},
	{Phrase: "french bulldog", Name: "French Bulldog"},
	{Phrase: "english bulldog", Name: "English Bulldog"},
	{Phrase: "bulldog", Name: "Bulldog"},
	{Phrase: "poodle", Name: "Poodle"},
	{Phrase: "beagle", Name: "Beagle"},
	{Phrase: "rottweiler", Name: "Rottweiler"},
	{Phrase: "yorkshire terrier", Name: "Yorkshire Terrier"},
	{Phrase: "jack russell", Name: "Jack Russell Terrier"},
	{Phrase: "dachshund", Name: "Dachshund"},
	{Phrase: "boxer", Name: "Boxer"},
	{Phrase: "siberian husky", Name: "Siberian Husky"},
	{Phrase: "husky", Name: "Husky"},
	{Phrase: "chihuahua", Name: "Chihuahua"},
	{Phrase: "shih tzu", Name: "Shih Tzu"},
	{Phrase: "border collie", Name: "Border Collie"},
	{Phrase: "cocker spaniel", Name: "Cocker Spaniel"},
	{Phrase: "pomeranian", Name: "Pomeranian"},
	{Phrase: "maltese", Name: "Maltese"},
	{Phrase: "cavalier", Name: "Cavalier King Charles Spaniel"},
	{Phrase: "maine coon", Name: "Maine Coon"},
	{Phrase: "british shorthair", Name: "British Shorthair"},
	{Phrase: "persian", Name: "Persian"},
	{Phrase: "siamese", Name: "Siamese"},
	{Phrase: "ragdoll", Name: "Ragdoll"},
	{Phrase: "bengal", Name: "Bengal"},
	{Phrase: "sphynx", Name: "Sphynx"},
	{Phrase: "scottish fold", Name: "Scottish Fold"},
	{Phrase: "budgie", Name: "Budgerigar"},
	{Phrase: "budgerigar", Name: "Budgerigar"},
	{Phrase: "cockatiel", Name: "Cockatiel"},
	{Phrase: "african grey", Name: "African Grey Parrot"},
	{Phrase: "canary", Name: "Canary"},
	{Phrase: "lovebird", Name: "Lovebird"},
	{Phrase: "goldfish", Name: "Goldfish"},
	{Phrase: "betta", Name: "Betta"},
	{Phrase: "guppy", Name: "Guppy"},
	{Phrase: "koi", Name: "Koi"},
}

const (
	DefaultBreed  = "Mixed"
	DefaultGender = "Mixed"
	Male          = "Male"
	Female        = "Female"
)

type CategoryRule struct {
	Slug    string
	Pattern *regexp.Regexp
}

// Categories are checked in table order; the first matching family wins.
var Categories = []CategoryRule{
	{
		Slug:    "dogs",
		Pattern: regexp.MustCompile(`\b(dogs?|pupp(y|ies)|pups?|canine|hounds?|retrievers?|labradors?|terriers?|shepherds?|bulldogs?|poodles?|beagles?|spaniels?|huskies|husky|chihuahuas?|dachshunds?|rottweilers?|collies?)\b`),
	},
	{
		Slug:    "cats",
		Pattern: regexp.MustCompile(`\b(cats?|kittens?|kitty|feline|siamese|persian|maine coon|ragdoll|bengal|sphynx|shorthair)\b`),
	},
	{
		Slug:    "birds",
		Pattern: regexp.MustCompile(`\b(birds?|parrots?|budgies?|budgerigars?|canar(y|ies)|cockatiels?|finch(es)?|lovebirds?|macaws?|cockatoos?)\b`),
	},
	{
		Slug:    "fish",
		Pattern: regexp.MustCompile(`\b(fish(es)?|goldfish|betta|gupp(y|ies)|koi|aquarium|cichlids?)\b`),
	},
}

// PetKeywords is the relevance vocabulary: a title containing none of these is
// not a pet listing.
var PetKeywords = []string{
	"dog", "puppy", "puppies", "pup",
	"cat", "kitten", "kitty",
	"bird", "parrot", "budgie", "canary", "cockatiel",
	"fish", "aquarium",
	"rabbit", "bunny", "hamster", "guinea pig", "ferret",
	"pet", "breed",
	"retriever", "labrador", "terrier", "shepherd", "bulldog", "poodle", "husky",
	"siamese", "persian", "maine coon",
}

var (
	ageRe    = regexp.MustCompile(`(\d+)\s*(week|month|year)s?`)
	maleRe   = regexp.MustCompile(`\bmales?\b`)
	femaleRe = regexp.MustCompile(`\bfemales?\b`)
)
