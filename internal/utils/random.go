package utils

import (
	"fmt"
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         domain.RoleScheduler,
	}

	return user, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

var courseNumbers = []string{"MATH 1010", "MATH 1020", "MATH 1120", "MATH 2010", "MATH 2210", "MATH 3090"}

var timeSlotDescriptions = []string{
	"MWF 8:00-8:50am",
	"MWF 9:00-9:50am",
	"MWF 10:00-10:50am",
	"MWF 1:00-1:50pm",
	"MWF 2:00-2:50pm",
	"TR 8:00-9:15am",
	"TR 9:30-10:45am",
	"TR 11:00-12:15pm",
	"TR 2:00-3:15pm",
	"MW 6:00-7:15pm Evening",
}

// 偏好取值范围为 [0, n]，0 表示无偏好
func randomPreference(n int) int32 {
	return int32(rand.Intn(n + 1))
}

// GenerateRandomCatalog 随机生成一个可以直接用于排课的目录
// 教室数和时间段数保证 (教室, 时间段) 组合足够容纳所有课程班次
func GenerateRandomCatalog(sectionCount int, roomCount int, teacherCount int) *domain.Catalog {
	c := &domain.Catalog{
		Name:        "课程目录" + GenerateRandomID(3, 3),
		Description: "随机生成的课程目录",
	}

	for i := 1; i <= sectionCount; i++ {
		c.CourseSections = append(c.CourseSections, domain.CourseSection{
			ID:           int64(i),
			CourseNumber: courseNumbers[rand.Intn(len(courseNumbers))],
			Section:      fmt.Sprintf("%02d", i),
			Units:        3,
			CourseType:   domain.CourseType(rand.Intn(2) + 1),
		})
	}

	for roomCount*len(timeSlotDescriptions) < sectionCount {
		roomCount++
	}
	for i := 1; i <= roomCount; i++ {
		c.Classrooms = append(c.Classrooms, domain.Classroom{
			ID:         int64(i),
			RoomNumber: fmt.Sprintf("R%03d", 100+i),
			BoardType:  domain.BoardType(rand.Intn(2) + 1),
		})
	}

	for i, description := range timeSlotDescriptions {
		c.TimeSlots = append(c.TimeSlots, domain.TimeSlot{ID: int64(i + 1), Description: description})
	}

	// 每位教师的上限至少为平均工作量，保证存在满足工作量上限的课表
	average := (sectionCount + teacherCount - 1) / max(teacherCount, 1)
	for i := 1; i <= teacherCount; i++ {
		fullName := GenerateRandomChineseName()
		scores := make(map[int64]float64, sectionCount)
		for _, section := range c.CourseSections {
			scores[section.ID] = float64(rand.Intn(6))
		}

		c.Teachers = append(c.Teachers, domain.Teacher{
			ID:       int64(i),
			FullName: fullName,
			Email:    GenerateUsernameFromChineseName(fullName) + "@example.com",
			Preference: domain.TeacherPreference{
				TeacherID:   int64(i),
				MinSections: int32(max(average-1, 0)),
				MaxSections: int32(average + rand.Intn(2)),
				BoardPref:   domain.BoardType(randomPreference(2)),
				TimePref:    domain.TimePreference(randomPreference(3)),
				DaysPref:    domain.DaysPreference(randomPreference(2)),
				TypePref:    domain.CourseType(randomPreference(2)),
			},
			Satisfaction: domain.TeacherSatisfaction{TeacherID: int64(i), Scores: scores},
		})
	}

	return c
}
