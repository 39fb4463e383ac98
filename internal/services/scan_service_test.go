package services

import (
	"reflect"
	"testing"

	"medremind/internal/models"
	"medremind/internal/schedule"
)

func TestVocabularyFromProfile(t *testing.T) {
	vocab := vocabularyFromProfile(models.MealTimeProfile{
		Breakfast:     "07:00",
		Lunch:         "12:30",
		EveningSnacks: "17:00",
		Dinner:        "19:30",
	})

	want := schedule.Vocabulary{
		Morning:   "07:00",
		Afternoon: "12:30",
		Evening:   "17:00",
		Night:     "19:30",
	}
	if vocab != want {
		t.Errorf("vocabulary = %+v, want %+v", vocab, want)
	}
}

func TestVocabularyFromProfile_InvalidSlotsFallBack(t *testing.T) {
	vocab := vocabularyFromProfile(models.MealTimeProfile{
		Breakfast:     "7am",
		Lunch:         "12:30",
		EveningSnacks: "",
		Dinner:        "19:30",
	})

	if vocab.Morning != schedule.DefaultMorningTime {
		t.Errorf("morning = %q, want default %q", vocab.Morning, schedule.DefaultMorningTime)
	}
	if vocab.Evening != schedule.DefaultEveningTime {
		t.Errorf("evening = %q, want default %q", vocab.Evening, schedule.DefaultEveningTime)
	}
	if vocab.Afternoon != "12:30" || vocab.Night != "19:30" {
		t.Errorf("valid slots changed: %+v", vocab)
	}
}

// A configured meal-time profile must drive the times records are built with,
// not just what the settings endpoint serves back.
func TestBuildUsesUserMealTimes(t *testing.T) {
	vocab := vocabularyFromProfile(models.MealTimeProfile{
		Breakfast:     "07:00",
		Lunch:         "12:30",
		EveningSnacks: "17:00",
		Dinner:        "19:30",
	})
	builder := schedule.NewBuilder(vocab)

	tests := []struct {
		name      string
		frequency string
		want      []string
	}{
		{name: "twice daily", frequency: "twice daily", want: []string{"07:00", "19:30"}},
		{name: "once daily", frequency: "once daily", want: []string{"07:00"}},
		{name: "morning and night", frequency: "in the morning and at night", want: []string{"07:00", "19:30"}},
		{name: "empty defaults to morning slot", frequency: "", want: []string{"07:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			med := builder.Build(models.RawExtraction{Name: "Amoxicillin", Frequency: tt.frequency})
			if !reflect.DeepEqual(med.Times, tt.want) {
				t.Errorf("Build(%q).Times = %v, want %v", tt.frequency, med.Times, tt.want)
			}
		})
	}
}
