package value

import (
	"fmt"
	"time"

	"github.com/adhocore/gronx"
)

// time

type Time time.Time

func NewTime(p *time.Time, val time.Time) *Time {
	*p = val

	return (*Time)(p)
}

func (u *Time) Set(val string) error {
	v, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return err
	}
	*u = Time(v)
	return nil
}

func (u *Time) String() string {
	v := time.Time(*u)
	return v.Format(time.RFC3339)
}

func (u *Time) Validate() error {
	return nil
}

func (u *Time) IsEmpty() bool {
	v := time.Time(*u)
	return v.IsZero()
}

// cron pattern, optional

type Cron string

func NewCron(p *string, val string) *Cron {
	*p = val

	return (*Cron)(p)
}

func (c *Cron) Set(val string) error {
	*c = Cron(val)
	return nil
}

func (c *Cron) String() string {
	return string(*c)
}

func (c *Cron) Validate() error {
	val := string(*c)

	if len(val) == 0 {
		return nil
	}

	cron := gronx.New()
	if !cron.IsValid(val) {
		return fmt.Errorf("'%s' is not a valid cron pattern", val)
	}

	return nil
}

func (c *Cron) IsEmpty() bool {
	return len(string(*c)) == 0
}
