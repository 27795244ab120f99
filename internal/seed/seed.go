// Package seed generates random employees and shifts for local development.
package seed

import (
	"math/rand"
	"strings"
	"time"

	"github.com/mozillazg/go-pinyin"
	"github.com/shiftsync/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "庆",
}

const digits = "0123456789"

// ShiftSlot is a recurring daily time range used to lay out seeded shifts.
type ShiftSlot struct {
	Title string
	Start time.Duration // offset from midnight
	End   time.Duration
}

var DefaultSlots = []ShiftSlot{
	{Title: "Front desk morning", Start: 9 * time.Hour, End: 12 * time.Hour},
	{Title: "Front desk afternoon", Start: 13*time.Hour + 30*time.Minute, End: 17 * time.Hour},
	{Title: "Evening support", Start: 19 * time.Hour, End: 21 * time.Hour},
	{Title: "Weekend cover", Start: 10 * time.Hour, End: 16 * time.Hour},
}

type PlannedShift struct {
	Title string
	Start time.Time
	End   time.Time
}

type Generator struct {
	rng *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

func (g *Generator) ChineseName() string {
	surname := commonSurnames[g.rng.Intn(len(commonSurnames))]
	nameLength := g.rng.Intn(2) + 1

	var b strings.Builder
	b.WriteString(surname)
	for i := 0; i < nameLength; i++ {
		b.WriteString(commonNameCharacters[g.rng.Intn(len(commonNameCharacters))])
	}
	return b.String()
}

// Username abbreviates each syllable's pinyin and appends a few digits, e.g.
// 王伟 -> wangw42.
func (g *Generator) Username(chineseName string) string {
	var b strings.Builder
	for _, syllable := range pinyin.LazyConvert(chineseName, nil) {
		b.WriteString(syllable[:g.rng.Intn(len(syllable))+1])
	}

	digitsLength := g.rng.Intn(2) + 2
	for i := 0; i < digitsLength; i++ {
		b.WriteByte(digits[g.rng.Intn(len(digits))])
	}
	return b.String()
}

func (g *Generator) Employee(password, emailDomain string) (*domain.User, error) {
	username := g.Username(g.ChineseName())
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		Role:         domain.RoleEmployee,
	}
	if emailDomain != "" {
		user.Email = username + "@" + emailDomain
	}
	return user, nil
}

// Week lays out shifts for a run of days starting at midnight of from. Weekdays
// get a random non-empty subset of the first three slots, weekends the last
// one.
func (g *Generator) Week(from time.Time, days int, slots []ShiftSlot) []PlannedShift {
	if len(slots) == 0 {
		return nil
	}

	midnight := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	weekday := slots[:max(len(slots)-1, 1)]
	weekend := slots[len(slots)-1:]

	planned := make([]PlannedShift, 0)
	for d := 0; d < days; d++ {
		day := midnight.AddDate(0, 0, d)

		var chosen []ShiftSlot
		switch day.Weekday() {
		case time.Saturday, time.Sunday:
			chosen = weekend
		default:
			chosen = g.subset(weekday)
		}

		for _, slot := range chosen {
			planned = append(planned, PlannedShift{
				Title: slot.Title,
				Start: day.Add(slot.Start),
				End:   day.Add(slot.End),
			})
		}
	}
	return planned
}

// subset keeps slot order, which is also time order.
func (g *Generator) subset(slots []ShiftSlot) []ShiftSlot {
	for {
		chosen := make([]ShiftSlot, 0, len(slots))
		for _, slot := range slots {
			if g.rng.Intn(3) > 0 {
				chosen = append(chosen, slot)
			}
		}
		if len(chosen) > 0 {
			return chosen
		}
	}
}
