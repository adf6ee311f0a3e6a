package classify

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestAge(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "10 weeks old, playful", want: "10 weeks"},
		{in: "1 year old male", want: "1 year"},
		{in: "3 month old kitten", want: "3 months"},
		{in: "2years, vaccinated", want: "2 years"},
		{in: "Age: 8 Weeks", want: "8 weeks"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Age(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestAge_Absent(t *testing.T) {
	assert.Nil(t, Age("young and playful"))
	assert.Nil(t, Age("weeks of fun"))
	assert.Nil(t, Age(""))
}

func TestGender(t *testing.T) {
	tests := []struct {
		in        string
		want      string
		ambiguous bool
	}{
		{in: "lovely male puppy", want: Male},
		{in: "Female kitten looking for home", want: Female},
		{in: "2 males and 1 female available", want: DefaultGender, ambiguous: true},
		{in: "female and male budgies", want: DefaultGender, ambiguous: true},
		{in: "litter of puppies", want: DefaultGender},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ambiguous := Gender(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ambiguous, ambiguous)
		})
	}
}

func TestCategory(t *testing.T) {
	tests := map[string]string{
		"labrador puppies for sale":       "dogs",
		"two kittens, litter trained":     "cats",
		"hand-reared cockatiel":           "birds",
		"goldfish with 60l aquarium":      "fish",
		"dog and cat friendly home":       "dogs",
		"rabbit hutch, barely used":       "",
		"scratching post for the kitty":   "cats",
		"complete aquarium for cichlids": "fish",
	}

	for in, want := range tests {
		assert.Equal(t, want, Category(in), in)
	}
}

func TestCategory_PriorityIsTableOrder(t *testing.T) {
	slugs := make([]string, 0, len(Categories))
	for _, c := range Categories {
		slugs = append(slugs, c.Slug)
	}

	assert.Equal(t, []string{"dogs", "cats", "birds", "fish"}, slugs)
	assert.Equal(t, "dogs", Category("fish tank and a puppy"))
}

func TestClassifier_Breed(t *testing.T) {
	c := New()

	tests := []struct {
		in   string
		want string
	}{
		{in: "French Bulldog puppies", want: "French Bulldog"},
		{in: "old english bulldog", want: "English Bulldog"},
		{in: "Bulldog cross", want: "Bulldog"},
		{in: "siberian husky female", want: "Siberian Husky"},
		{in: "husky mix", want: "Husky"},
		{in: "cute kitten", want: DefaultBreed},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Breed(tt.in))
		})
	}
}

func TestClassifier_BreedFirstInTableWins(t *testing.T) {
	c := New()

	// poodle appears first in the text but labrador is higher in the table
	assert.Equal(t, "Labrador Retriever", c.Breed("poodle x labrador"))
}

func TestClassifier_BreedTableHasNoShadowedPhrases(t *testing.T) {
	for i, outer := range Breeds {
		for _, inner := range Breeds[:i] {
			assert.False(t, strings.Contains(outer.Phrase, inner.Phrase),
				"%q is shadowed by earlier phrase %q", outer.Phrase, inner.Phrase)
		}
	}
}

func TestClassifier_IsRelevant(t *testing.T) {
	c := New()

	assert.True(t, c.IsRelevant("Golden Retriever Puppies"))
	assert.True(t, c.IsRelevant("Guinea pig with cage"))
	assert.False(t, c.IsRelevant("Used bicycle, good condition"))
	assert.False(t, c.IsRelevant("Sofa for sale"))
}

func TestClassifier_IsRelevantMatchesWholeWords(t *testing.T) {
	c := New()

	tests := []struct {
		title string
		want  bool
	}{
		{title: "Vacation apartment near the sea", want: false},
		{title: "Competition bike", want: false},
		{title: "Trumpet in a hard case", want: false},
		{title: "Catalog of cars 1998", want: false},
		{title: "Wool carpet, hand made", want: false},
		{title: "Two cats need a new home", want: true},
		{title: "Friendly dogs, vaccinated", want: true},
		{title: "Pet carrier, medium", want: true},
		{title: "Cat-friendly scratching post", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsRelevant(tt.title))
		})
	}
}

func TestClassifier_Classify(t *testing.T) {
	c := New()

	got := c.Classify("Beautiful Golden Retriever Puppies", "10 weeks old, playful and vaccinated. Female.", "")
	assert.Equal(t, "Golden Retriever", got.Breed)
	require.NotNil(t, got.Age)
	assert.Equal(t, "10 weeks", *got.Age)
	assert.Equal(t, Female, got.Gender)
	assert.Equal(t, "dogs", got.CategorySlug)

	mixed := c.Classify("Kittens available", "male and female", "")
	assert.Equal(t, DefaultBreed, mixed.Breed)
	assert.Nil(t, mixed.Age)
	assert.Equal(t, DefaultGender, mixed.Gender)
	assert.True(t, mixed.AmbiguousGender)
	assert.Equal(t, "cats", mixed.CategorySlug)

	hinted := c.Classify("Pet for sale", "", "Breed: Maine Coon")
	assert.Equal(t, "Maine Coon", hinted.Breed)
	assert.Equal(t, "cats", hinted.CategorySlug)
}

func TestClassifier_ConcurrentUse(t *testing.T) {
	c := New()
	done := make(chan string, 16)

	for i := 0; i < 16; i++ {
		go func() {
			done <- c.Classify("french bulldog puppy", "", "").Breed
		}()
	}

	for i := 0; i < 16; i++ {
		assert.Equal(t, "French Bulldog", <-done)
	}
}
