package models

import "testing"

func TestMealTimeProfileValidate(t *testing.T) {
	if err := DefaultMealTimes().Validate(); err != nil {
		t.Fatalf("default profile invalid: %v", err)
	}

	tests := []struct {
		name    string
		profile MealTimeProfile
		wantErr bool
	}{
		{
			name:    "custom valid times",
			profile: MealTimeProfile{Breakfast: "07:30", Lunch: "12:00", EveningSnacks: "16:45", Dinner: "20:00"},
		},
		{
			name:    "missing slot",
			profile: MealTimeProfile{Breakfast: "07:30", Lunch: "12:00", Dinner: "20:00"},
			wantErr: true,
		},
		{
			name:    "hour out of range",
			profile: MealTimeProfile{Breakfast: "25:00", Lunch: "12:00", EveningSnacks: "16:45", Dinner: "20:00"},
			wantErr: true,
		},
		{
			name:    "not a clock time",
			profile: MealTimeProfile{Breakfast: "8am", Lunch: "12:00", EveningSnacks: "16:45", Dinner: "20:00"},
			wantErr: true,
		},
		{
			name:    "single digit hour needs zero padding",
			profile: MealTimeProfile{Breakfast: "9:00", Lunch: "12:00", EveningSnacks: "16:45", Dinner: "20:00"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}
