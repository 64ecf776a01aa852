package service

import (
	"context"
	"errors"
	"testing"

	"nutrilog/internal/models"
)

func TestRegister_SeedsGoal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Register(ctx, 1, ProfileInput{
		Name:          "Ann",
		Email:         " Ann@Example.com ",
		Age:           31,
		Weight:        64,
		Height:        170,
		Gender:        models.GenderFemale,
		ActivityLevel: models.ActivityLightlyActive,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if p.Email != "ann@example.com" {
		t.Errorf("email = %q", p.Email)
	}
	if p.Picture == "" {
		t.Error("default picture not set")
	}
	if p.Goal == nil || p.Goal.GoalType != models.GoalMaintenance || p.Goal.DailyCalorieGoal != 0 {
		t.Errorf("seeded goal = %+v", p.Goal)
	}

	got, err := svc.Profile(ctx, 1)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if got.Goal == nil || got.Goal.ID != p.Goal.ID {
		t.Errorf("profile goal = %+v", got.Goal)
	}
}

func TestRegister_WithGoal(t *testing.T) {
	svc, _ := newTestService(t)
	g := validGoal(1700)
	p, err := svc.Register(context.Background(), 1, ProfileInput{Name: "Bo", Email: "bo@example.com", Goal: &g})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if p.Goal.DailyCalorieGoal != 1700 || p.Goal.GoalType != models.GoalWeightLoss {
		t.Errorf("goal = %+v", p.Goal)
	}
}

func TestRegister_Rejects(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, 1, ProfileInput{Name: "Ann", Email: "ann@example.com"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		name string
		id   int64
		in   ProfileInput
	}{
		{"duplicate email", 2, ProfileInput{Name: "Ann 2", Email: "ANN@example.com"}},
		{"duplicate id", 1, ProfileInput{Name: "Ann", Email: "other@example.com"}},
		{"bad email", 3, ProfileInput{Name: "C", Email: "not-an-email"}},
		{"no name", 3, ProfileInput{Email: "c@example.com"}},
		{"bad gender", 3, ProfileInput{Name: "C", Email: "c@example.com", Gender: "Robot"}},
		{"negative weight", 3, ProfileInput{Name: "C", Email: "c@example.com", Weight: -70}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.id, tt.in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("err = %v, want ValidationError", err)
			}
		})
	}

	// A rejected registration must not leave a goal behind.
	if g, _ := svc.MyGoal(ctx, 2); g != nil {
		t.Errorf("goal left for rejected user: %+v", g)
	}
}

func TestUpdateProfile_Patches(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, 1, ProfileInput{Name: "Ann", Email: "ann@example.com", Weight: 64}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, 2, ProfileInput{Name: "Bo", Email: "bo@example.com"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	g := validGoal(1600)
	p, err := svc.UpdateProfile(ctx, 1, ProfileInput{Weight: 62, Goal: &g})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if p.Name != "Ann" || p.Weight != 62 {
		t.Errorf("profile = %+v", p.User)
	}
	if p.Goal == nil || p.Goal.DailyCalorieGoal != 1600 {
		t.Errorf("goal = %+v", p.Goal)
	}

	var ve *ValidationError
	if _, err := svc.UpdateProfile(ctx, 1, ProfileInput{Email: "bo@example.com"}); !errors.As(err, &ve) {
		t.Errorf("taken email err = %v", err)
	}
	var nf *NotFoundError
	if _, err := svc.UpdateProfile(ctx, 42, ProfileInput{Name: "x"}); !errors.As(err, &nf) {
		t.Errorf("unknown user err = %v", err)
	}
}

func TestAdminUsers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, in := range []struct {
		id int64
		p  ProfileInput
	}{
		{1, ProfileInput{Name: "Ann", Email: "ann@example.com"}},
		{2, ProfileInput{Name: "Bo", Email: "bo@example.com"}},
	} {
		if _, err := svc.Register(ctx, in.id, in.p); err != nil {
			t.Fatalf("Register(%d): %v", in.id, err)
		}
	}

	users, err := svc.ListUsers(ctx)
	if err != nil || len(users) != 2 || users[0].ID != 1 {
		t.Fatalf("ListUsers = %+v, %v", users, err)
	}

	yes := true
	u, err := svc.UpdateUser(ctx, 1, AdminUserInput{Name: "Ann Admin", IsAdmin: &yes})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if !u.IsAdmin || u.Name != "Ann Admin" || u.Email != "ann@example.com" {
		t.Errorf("updated user = %+v", u)
	}

	// A profile edit must not clear the admin flag.
	if _, err := svc.UpdateProfile(ctx, 1, ProfileInput{Age: 40}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	got, err := svc.GetUser(ctx, 1)
	if err != nil || !got.IsAdmin || got.Age != 40 {
		t.Errorf("GetUser = %+v, %v", got, err)
	}

	var ve *ValidationError
	if _, err := svc.UpdateUser(ctx, 2, AdminUserInput{Email: "ann@example.com"}); !errors.As(err, &ve) {
		t.Errorf("email clash err = %v", err)
	}
	var nf *NotFoundError
	if _, err := svc.UpdateUser(ctx, 99, AdminUserInput{Name: "x"}); !errors.As(err, &nf) {
		t.Errorf("unknown user err = %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for id, email := range map[int64]string{1: "ann@example.com", 2: "bo@example.com"} {
		if _, err := svc.Register(ctx, id, ProfileInput{Name: "user", Email: email}); err != nil {
			t.Fatalf("Register(%d): %v", id, err)
		}
	}
	yes := true
	if _, err := svc.UpdateUser(ctx, 1, AdminUserInput{IsAdmin: &yes}); err != nil {
		t.Fatal(err)
	}

	var ve *ValidationError
	if err := svc.DeleteUser(ctx, 1); !errors.As(err, &ve) {
		t.Errorf("deleting an admin err = %v, want ValidationError", err)
	}
	if _, err := svc.GetUser(ctx, 1); err != nil {
		t.Errorf("admin gone after refused delete: %v", err)
	}

	if err := svc.DeleteUser(ctx, 2); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	var nf *NotFoundError
	if _, err := svc.GetUser(ctx, 2); !errors.As(err, &nf) {
		t.Errorf("deleted user err = %v", err)
	}
	if g, err := svc.MyGoal(ctx, 2); err != nil || g != nil {
		t.Errorf("goal after delete = %+v, %v", g, err)
	}
	if err := svc.DeleteUser(ctx, 2); !errors.As(err, &nf) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestSeed(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	data, err := ReadSeedFile("testdata/seed.json")
	if err != nil {
		t.Fatalf("ReadSeedFile: %v", err)
	}
	res, err := svc.Seed(ctx, *data)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if res.Users != 2 || res.Foods != 2 {
		t.Errorf("result = %+v", res)
	}

	admin, err := svc.GetUser(ctx, 1)
	if err != nil || !admin.IsAdmin {
		t.Errorf("admin = %+v, %v", admin, err)
	}
	jane, err := svc.Profile(ctx, 2)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if jane.IsAdmin || jane.Goal == nil || jane.Goal.DailyCalorieGoal != 1800 {
		t.Errorf("jane = %+v goal %+v", jane.User, jane.Goal)
	}
	page, err := svc.SearchFoods(ctx, "yogurt", 1)
	if err != nil || len(page.Foods) != 1 || page.Foods[0].Macros == nil || page.Foods[0].Macros.Protein != 17 {
		t.Errorf("search = %+v, %v", page, err)
	}

	// Loading the same file again conflicts and writes nothing.
	if _, err := svc.Seed(ctx, *data); err == nil {
		t.Error("second seed should fail")
	}
	users, _ := svc.ListUsers(ctx)
	if len(users) != 2 {
		t.Errorf("users after failed seed = %d", len(users))
	}
	all, _ := svc.SearchFoods(ctx, "", 1)
	if len(all.Foods) != 2 {
		t.Errorf("foods after failed seed = %d", len(all.Foods))
	}
}

func TestSeed_RejectsInvalidEntries(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		data SeedData
	}{
		{"no id", SeedData{Users: []SeedUser{{ProfileInput: ProfileInput{Name: "x", Email: "x@example.com"}}}}},
		{"bad email", SeedData{Users: []SeedUser{{ID: 1, ProfileInput: ProfileInput{Name: "x", Email: "nope"}}}}},
		{"food without description", SeedData{Foods: []FoodInput{{ServingSize: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ve *ValidationError
			if _, err := svc.Seed(ctx, tt.data); !errors.As(err, &ve) {
				t.Errorf("err = %v, want ValidationError", err)
			}
		})
	}
	users, _ := svc.ListUsers(ctx)
	if len(users) != 0 {
		t.Errorf("users = %d after rejected seeds", len(users))
	}
}
